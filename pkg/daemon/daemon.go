// Package daemon runs the watchdog poll loop.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/battery"
	"github.com/charlie0129/battered/pkg/config"
	"github.com/charlie0129/battered/pkg/executor"
	"github.com/charlie0129/battered/pkg/notify"
	"github.com/charlie0129/battered/pkg/runner"
)

// Run loads the config at configPath and runs the poll loop in the
// foreground until SIGINT or SIGTERM. SIGHUP reloads the config. With
// desktop set, notifications go to the session bus and fall back to the
// log; otherwise they are only logged.
func Run(configPath string, desktop bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	notifier, closeNotifier := NewNotifier(desktop)
	defer closeNotifier()

	w := NewWatchdog(conf, func(index int) battery.Source {
		return battery.NewSystem(index)
	}, notifier, &runner.Exec{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Receive SIGHUP to reload config
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		select {
		case sig := <-sigc:
			logrus.Infof("caught signal \"%s\": shutting down.", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logrus.Debugln("main loop starts")
	err = w.Loop(ctx, sighup)
	if err != nil {
		return err
	}

	logrus.Info("exiting")
	return nil
}

// NewNotifier returns the notification sink used by the daemon and a func
// that releases it.
func NewNotifier(desktop bool) (executor.Notifier, func()) {
	logSink := &notify.Log{}
	if !desktop {
		return logSink, func() {}
	}

	bus := notify.NewDBus()
	return &notify.Fallback{Primary: bus, Secondary: logSink}, func() {
		logrus.Debug("closing session bus connection")
		if err := bus.Close(); err != nil {
			logrus.Errorf("failed to close session bus connection: %v", err)
		}
	}
}
