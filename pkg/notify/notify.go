// Package notify delivers operator alerts over Slack, Telegram, SNS or the log.
// Delivery is best-effort: callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message is a single alert.
type Message struct {
	Text     string
	Username string // display name shown by the channel, when supported
}

// Notifier sends a message to an alerting channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Logger defines the logging surface notifiers rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// Multi sends every message to all notifiers.
type Multi struct {
	notifiers []Notifier
}

// NewMulti drops nil entries.
func NewMulti(notifiers ...Notifier) *Multi {
	cp := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			cp = append(cp, n)
		}
	}
	return &Multi{notifiers: cp}
}

// Notify returns the joined failures of every channel.
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrNotifyFailed, errors.Join(errs...))
	}
	return nil
}

// Size returns the number of channels.
func (m *Multi) Size() int { return len(m.notifiers) }

// LogNotifier writes alerts to the application log.
type LogNotifier struct {
	log Logger
}

// NewLogNotifier returns a notifier backed by log.
func NewLogNotifier(log Logger) *LogNotifier {
	return &LogNotifier{log: ensureLogger(log)}
}

func (l *LogNotifier) Notify(_ context.Context, msg Message) error {
	l.log.InfoObj("notification", "notification", map[string]any{
		"username": msg.Username,
		"text":     msg.Text,
	})
	return nil
}
