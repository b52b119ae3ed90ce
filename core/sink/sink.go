// Package sink delivers load progress, errors and the load-finished signal
// to whatever is presenting them.
package sink

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// Sink is the UI collaborator. Implementations must be safe for concurrent
// use: progress arrives from fetch goroutines.
type Sink interface {
	ReportProgress(percent int)
	ReportError(message string)
	ReportLoadFinished()
}

// Multi fans every report out to each sink in order.
type Multi []Sink

func (m Multi) ReportProgress(percent int) {
	for _, s := range m {
		s.ReportProgress(percent)
	}
}

func (m Multi) ReportError(message string) {
	for _, s := range m {
		s.ReportError(message)
	}
}

func (m Multi) ReportLoadFinished() {
	for _, s := range m {
		s.ReportLoadFinished()
	}
}

// Log writes reports to a zap logger.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log.Named("ui")}
}

func (l *Log) ReportProgress(percent int) {
	l.log.Debug("load progress", zap.Int("percent", percent))
}

func (l *Log) ReportError(message string) {
	l.log.Error("loop error", zap.String("message", message))
}

func (l *Log) ReportLoadFinished() {
	l.log.Info("load finished")
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
