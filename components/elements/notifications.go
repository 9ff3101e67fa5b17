package elements

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// NotificationLevel grades a user-facing notification.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is a user-facing message raised by the integration.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Detail  string            `json:"detail,omitempty"`
	Err     error             `json:"-"`
	Time    time.Time         `json:"time"`
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// NewLogNotifier builds a notifier tagged with the notifications component.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{Logger: log.With().Str("component", "notifications").Logger()}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, note Notification) {
	var ev *zerolog.Event
	switch note.Level {
	case NotificationError:
		ev = n.Logger.Error()
	case NotificationWarning:
		ev = n.Logger.Warn()
	default:
		ev = n.Logger.Info()
	}
	if note.Err != nil {
		ev = ev.Err(note.Err)
	}
	ev.Str("title", note.Title).Str("detail", note.Detail).Msg(note.Message)
}

// MultiNotifier delivers each notification to every notifier in order.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

func errorNotification(title, message string, err error) Notification {
	n := Notification{
		Level:   NotificationError,
		Title:   title,
		Message: message,
		Err:     err,
		Time:    time.Now().UTC(),
	}
	if err != nil {
		n.Detail = err.Error()
	}
	return n
}
