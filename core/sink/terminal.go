package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Terminal draws load progress as a progress bar.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func NewTerminal(out io.Writer, title string) *Terminal {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetPredictTime(false),
	)
	return &Terminal{out: out, bar: bar}
}

func (t *Terminal) ReportProgress(percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.bar.Set(percent)
}

func (t *Terminal) ReportError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.bar.Exit()
	fmt.Fprintf(t.out, "\nError: %s\n", message)
}

func (t *Terminal) ReportLoadFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.bar.Finish()
	fmt.Fprintln(t.out, "\nloaded, playing")
}
