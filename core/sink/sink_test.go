package sink

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recording struct {
	mu       sync.Mutex
	progress []int
	errors   []string
	finished int
}

func (r *recording) ReportProgress(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recording) ReportError(m string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, m)
}

func (r *recording) ReportLoadFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recording{}, &recording{}
	m := Multi{a, b}
	m.ReportProgress(10)
	m.ReportError("boom")
	m.ReportLoadFinished()
	for _, r := range []*recording{a, b} {
		assert.Equal(t, []int{10}, r.progress)
		assert.Equal(t, []string{"boom"}, r.errors)
		assert.Equal(t, 1, r.finished)
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewLog(zap.New(core))
	s.ReportProgress(42)
	s.ReportError("could not load song")
	s.ReportLoadFinished()

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, int64(42), entries[0].ContextMap()["percent"])
	assert.Equal(t, "could not load song", entries[1].ContextMap()["message"])
	assert.Equal(t, "load finished", entries[2].Message)
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewTerminal(&buf, "loading")
	s.ReportProgress(50)
	s.ReportProgress(100)
	s.ReportLoadFinished()
	assert.True(t, strings.Contains(buf.String(), "loaded"), buf.String())

	buf.Reset()
	s = NewTerminal(&buf, "loading")
	s.ReportError("frame 3 missing")
	assert.Contains(t, buf.String(), "Error: frame 3 missing")
}
