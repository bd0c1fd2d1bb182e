// Package notify delivers user-facing messages about background failures
// and state changes. The API client publishes to a Notifier; the TUI drains
// a Queue into toasts and the plain CLI writes them to stderr.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/ui/theme"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is one message for the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
	At      time.Time
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a plain function to the Notifier interface.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Error builds an error-level notification from err.
func Error(title string, err error) Notification {
	return Notification{Level: LevelError, Title: title, Message: err.Error(), At: time.Now()}
}

// Warn builds a warn-level notification.
func Warn(title, msg string) Notification {
	return Notification{Level: LevelWarn, Title: title, Message: msg, At: time.Now()}
}

// Info builds an info-level notification.
func Info(title, msg string) Notification {
	return Notification{Level: LevelInfo, Title: title, Message: msg, At: time.Now()}
}

// Log returns a Notifier that writes to a zap logger.
func Log(logger *zap.Logger) Notifier {
	return Func(func(n Notification) {
		fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
		switch n.Level {
		case LevelError:
			logger.Error("notification", fields...)
		case LevelWarn:
			logger.Warn("notification", fields...)
		default:
			logger.Info("notification", fields...)
		}
	})
}

// Writer returns a Notifier that prints one styled line per notification.
func Writer(w io.Writer) Notifier {
	var mu sync.Mutex
	return Func(func(n Notification) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, Format(n))
	})
}

// Format renders a notification as a single styled line.
func Format(n Notification) string {
	style := theme.Hint
	switch n.Level {
	case LevelError:
		style = theme.Incorrect
	case LevelWarn:
		style = theme.Warn
	}
	label := style.Render(fmt.Sprintf("[%s] %s", n.Level, n.Title))
	if n.Message == "" {
		return label
	}
	return label + ": " + n.Message
}

// Multi fans a notification out to every notifier.
func Multi(ns ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, x := range ns {
			if x != nil {
				x.Notify(n)
			}
		}
	})
}

// Queue buffers notifications until drained. When full, the oldest entry
// is dropped.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	max   int
}

// NewQueue creates a Queue holding at most size notifications.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	return &Queue{max: size}
}

func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.max {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns and clears the buffered notifications, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of buffered notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
