package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/battery"
	"github.com/charlie0129/battered/pkg/config"
	"github.com/charlie0129/battered/pkg/executor"
	"github.com/charlie0129/battered/pkg/matcher"
	"github.com/charlie0129/battered/pkg/template"
)

const (
	recorderSize = 60
	// failureNotifyTimeout bounds the notification sent after an action
	// failed, since the process exits right after.
	failureNotifyTimeout = 5 * time.Second
)

// SourceFunc opens the battery at index.
type SourceFunc func(index int) battery.Source

// Watchdog owns the per-process state of the poll loop: the battery source,
// the matcher and the executor. It is driven by a single goroutine.
type Watchdog struct {
	conf      config.Config
	newSource SourceFunc
	notifier  executor.Notifier
	runner    executor.Runner

	source   battery.Source
	matcher  *matcher.Matcher
	executor *executor.Executor
	recorder *TickRecorder

	lastStatus    loopStatus
	lastPrintTime time.Time
}

// NewWatchdog builds a watchdog from a loaded config. notifier may be nil.
func NewWatchdog(conf config.Config, newSource SourceFunc, notifier executor.Notifier, runner executor.Runner) *Watchdog {
	w := &Watchdog{
		conf:      conf,
		newSource: newSource,
		notifier:  notifier,
		runner:    runner,
		recorder:  NewTickRecorder(recorderSize),
	}
	w.rebuild()
	return w
}

func (w *Watchdog) rebuild() {
	w.source = w.newSource(w.conf.Battery())
	w.matcher = matcher.New(w.conf.Actions(), w.conf.ACAction())
	w.executor = executor.New(w.notifier, w.runner)
	w.executor.CommandTimeout = w.conf.CommandTimeout()
}

// Reload re-reads the config. On success the source, matcher and executor
// are rebuilt, so every action is armed again. On failure nothing changes.
func (w *Watchdog) Reload() error {
	err := w.conf.Load()
	if err != nil {
		return err
	}

	w.rebuild()
	return nil
}

// Tick takes one sample and fires the matching action, if any. A battery
// error or a failed action is returned; unless ctx is done, the failure is
// also reported with a critical notification.
func (w *Watchdog) Tick(ctx context.Context) (matcher.Decision, error) {
	now := time.Now()
	w.checkMissedTicks(now)
	w.recorder.AddRecord(now)

	sample, err := w.source.Sample()
	if err != nil {
		return matcher.Decision{Reason: matcher.NoMatch, Index: -1}, err
	}

	d := w.matcher.Update(sample.Charge, sample.Charging)
	w.printStatus(sample, d)

	if !d.Fired() {
		return d, nil
	}

	logrus.WithFields(sample.LogrusFields()).WithFields(logrus.Fields{
		"index":  d.Index,
		"action": d.Action.String(),
	}).Info("threshold crossed, firing action")

	err = w.executor.Fire(ctx, *d.Action, template.NewContext(sample.Charge))
	if err != nil {
		// A command killed because we are shutting down is not a failure
		// of the action.
		if ctx.Err() == nil {
			w.reportFailure(ctx, err)
		}
		return d, err
	}

	return d, nil
}

func (w *Watchdog) reportFailure(ctx context.Context, err error) {
	logrus.WithError(err).Error("action failed")

	if w.notifier == nil {
		return
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureNotifyTimeout)
	defer cancel()

	if nerr := w.notifier.Notify(nctx, executor.FailureMessage(err)); nerr != nil {
		logrus.WithError(nerr).Warn("failed to show failure notification")
	}
}

// checkMissedTicks logs when the last tick is much older than the interval,
// which usually means the system was asleep.
func (w *Watchdog) checkMissedTicks(now time.Time) bool {
	interval := w.conf.Interval()
	gap := w.recorder.Gap(now)
	if gap <= 2*interval {
		return false
	}

	logrus.WithFields(logrus.Fields{
		"gap":           gap.Round(time.Second).String(),
		"interval":      interval.String(),
		"recentRecords": formatRelativeTimes(w.recorder.GetLastRecords(gap+10*interval, now), now),
	}).Infof("possibly missed ticks, the system may have been asleep")
	return true
}

type loopStatus struct {
	percentage int
	charging   bool
	state      string
	reason     matcher.Reason
	index      int
}

func (w *Watchdog) printStatus(sample battery.Sample, d matcher.Decision) {
	currentStatus := loopStatus{
		percentage: template.Percentage(sample.Charge),
		charging:   sample.Charging,
		state:      sample.State,
		reason:     d.Reason,
		index:      d.Index,
	}

	fields := logrus.Fields{
		"percentage": currentStatus.percentage,
		"charging":   sample.Charging,
		"state":      sample.State,
		"decision":   d.Reason.String(),
		"index":      d.Index,
	}

	defer func() { w.lastPrintTime = time.Now() }()

	// Skip printing if the last print was less than one interval ago and
	// everything is the same.
	if time.Since(w.lastPrintTime) < w.conf.Interval()+time.Second && w.lastStatus == currentStatus {
		logrus.WithFields(fields).Trace("watchdog status")
		return
	}

	logrus.WithFields(fields).Debug("watchdog status")

	w.lastStatus = currentStatus
}
