package daemon

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop ticks every interval until ctx is done or a tick fails. A value on
// reload re-reads the config between ticks. The interval is read again
// after every tick, so a reload can change it.
func (w *Watchdog) Loop(ctx context.Context, reload <-chan os.Signal) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-reload:
			logrus.Infof("caught signal \"%s\": reloading config", sig)
			err := w.Reload()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(w.conf.LogrusFields()).Infof("config reloaded")
		case <-timer.C:
			_, err := w.Tick(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logrus.WithError(err).Debug("tick interrupted by shutdown")
					return nil
				}
				return err
			}
			timer.Reset(w.conf.Interval())
		}
	}
}
