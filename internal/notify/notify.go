// Package notify is the transient user-notification sink: the headless
// analog of the dashboard's toast messages.
package notify

import "log/slog"

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Notifier

// Notifier receives one-line user-facing outcome messages. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Logger is a Notifier that writes notifications through slog.
type Logger struct {
	log *slog.Logger
}

// NewLogger builds a slog-backed notifier.
func NewLogger(log *slog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Success(msg string) { l.log.Info(msg, "outcome", "success") }
func (l *Logger) Error(msg string)   { l.log.Warn(msg, "outcome", "error") }
func (l *Logger) Info(msg string)    { l.log.Info(msg, "outcome", "info") }

// Discard is a Notifier that drops everything; useful as a default.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}
func (Discard) Info(string)    {}
