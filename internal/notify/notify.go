// Package notify delivers short user-facing messages ("toasts") about
// checkout and sync outcomes.
//
// Messages are looked up in an x/text catalog, Indonesian by default with an
// English translation. Notifier implementations decide where a toast goes:
// the log, an in-memory feed polled by the UI, or several at once.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is one user-facing message.
type Toast struct {
	Level       Level     `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier receives toasts. Implementations must not block.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

// Notify implements Notifier.
func (f NotifierFunc) Notify(t Toast) { f(t) }

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(Toast) {})

// Log writes toasts to a slog logger.
type Log struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l Log) Notify(t Toast) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch t.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "toast", "level", string(t.Level), "title", t.Title, "description", t.Description)
}

// Multi fans a toast out to several notifiers in order.
func Multi(ns ...Notifier) Notifier {
	return NotifierFunc(func(t Toast) {
		for _, n := range ns {
			n.Notify(t)
		}
	})
}

// Feed keeps the most recent toasts in memory for the UI to poll.
// The zero value is not usable; create one with NewFeed.
type Feed struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
	now    func() time.Time
}

// NewFeed returns a feed that keeps at most limit toasts.
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{limit: limit, now: time.Now}
}

// Notify implements Notifier. A toast without a timestamp is stamped now.
func (f *Feed) Notify(t Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.At.IsZero() {
		t.At = f.now()
	}
	f.toasts = append(f.toasts, t)
	if over := len(f.toasts) - f.limit; over > 0 {
		f.toasts = append(f.toasts[:0:0], f.toasts[over:]...)
	}
}

// Recent returns the stored toasts, oldest first.
func (f *Feed) Recent() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Toast, len(f.toasts))
	copy(out, f.toasts)
	return out
}
