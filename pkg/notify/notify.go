// Package notify shows desktop notifications.
package notify

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/action"
)

// AppName is sent as the application name with every notification.
const AppName = "battered"

// Message is a fully rendered notification.
type Message struct {
	Summary string
	Body    string
	Icon    string
	Urgency action.Urgency
	Timeout action.Timeout
}

// LogrusFields returns m as log fields.
func (m Message) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"summary": m.Summary,
		"body":    m.Body,
		"icon":    m.Icon,
		"urgency": m.Urgency.String(),
		"timeout": m.Timeout.String(),
	}
}

// Sink delivers notifications.
type Sink interface {
	Notify(ctx context.Context, m Message) error
}

// Log writes notifications to the log instead of the desktop.
type Log struct {
	Logger logrus.FieldLogger
}

var _ Sink = &Log{}

// Notify implements Sink.
func (l *Log) Notify(_ context.Context, m Message) error {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	entry := logger.WithFields(m.LogrusFields())
	if m.Urgency == action.Critical {
		entry.Warn("notification")
	} else {
		entry.Info("notification")
	}
	return nil
}

// Fallback delivers through Primary and falls back to Secondary when Primary
// fails. It only returns an error when both fail.
type Fallback struct {
	Primary   Sink
	Secondary Sink
}

var _ Sink = &Fallback{}

// Notify implements Sink.
func (f *Fallback) Notify(ctx context.Context, m Message) error {
	err := f.Primary.Notify(ctx, m)
	if err == nil {
		return nil
	}

	logrus.WithError(err).Debug("primary notification sink failed, falling back")
	if err2 := f.Secondary.Notify(ctx, m); err2 != nil {
		return errors.Join(err, err2)
	}
	return nil
}
