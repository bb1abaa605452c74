// Package executor carries out a fired action: it shows the notification and
// then runs the command.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/action"
	"github.com/charlie0129/battered/pkg/notify"
	"github.com/charlie0129/battered/pkg/template"
)

// Notifier shows a notification. Errors are logged and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}

// Runner runs a command and waits for it. A non-zero exit status must be
// returned as an error.
type Runner interface {
	Run(ctx context.Context, argv []string) error
}

// ActionFailedError is returned when the command of an action could not be
// started or exited with a non-zero status.
type ActionFailedError struct {
	Action action.Action
	Err    error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action failed: %v", e.Err)
}

func (e *ActionFailedError) Unwrap() error {
	return e.Err
}

// Reason describes why the action failed.
func (e *ActionFailedError) Reason() string {
	return e.Err.Error()
}

// Executor fires actions. It holds no state between calls.
type Executor struct {
	notifier Notifier
	runner   Runner

	// CommandTimeout bounds each command when positive.
	CommandTimeout time.Duration
}

// New returns an Executor. notifier may be nil, in which case notifications
// are skipped.
func New(notifier Notifier, runner Runner) *Executor {
	return &Executor{
		notifier: notifier,
		runner:   runner,
	}
}

// Fire shows the notification of a, if any, and then runs its command, if
// any. Only a command failure is reported, as *ActionFailedError.
func (e *Executor) Fire(ctx context.Context, a action.Action, tctx template.Context) error {
	logger := logrus.WithFields(logrus.Fields{
		"kind":      a.Kind.String(),
		"threshold": a.Threshold,
	})

	if a.IsNull() {
		logger.Debug("action has neither notification nor command")
		return nil
	}

	if a.HasNotification() {
		e.notify(ctx, logger, Render(*a.Notification, tctx))
	}

	if !a.HasCommand() {
		return nil
	}

	runCtx := ctx
	if e.CommandTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.CommandTimeout)
		defer cancel()
	}

	logger.WithField("command", strings.Join(a.Command, " ")).Info("running action command")
	if err := e.runner.Run(runCtx, a.Command); err != nil {
		return &ActionFailedError{Action: a, Err: err}
	}
	return nil
}

func (e *Executor) notify(ctx context.Context, logger logrus.FieldLogger, m notify.Message) {
	if e.notifier == nil {
		logger.WithFields(m.LogrusFields()).Debug("no notifier configured, skipping notification")
		return
	}
	if err := e.notifier.Notify(ctx, m); err != nil {
		logger.WithError(err).Warn("failed to show notification")
		return
	}
	logger.WithField("summary", m.Summary).Info("notification shown")
}

// Render fills the templates of n with tctx.
func Render(n action.Notification, tctx template.Context) notify.Message {
	return notify.Message{
		Summary: template.Render(n.Summary, tctx),
		Body:    template.Render(n.Body, tctx),
		Icon:    n.Icon,
		Urgency: n.Urgency,
		Timeout: n.Timeout,
	}
}

// FailureMessage is the critical notification shown when an action fails.
// For an ActionFailedError the body is just the reason.
func FailureMessage(err error) notify.Message {
	body := err.Error()
	var failed *ActionFailedError
	if errors.As(err, &failed) {
		body = failed.Reason()
	}

	return notify.Message{
		Summary: "battered action failed",
		Body:    body,
		Icon:    "dialog-error",
		Urgency: action.Critical,
		Timeout: action.TimeoutDefault(),
	}
}
