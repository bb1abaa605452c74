package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/action"
)

type Config interface {
	// Interval is the time between two battery readings.
	Interval() time.Duration
	// Battery selects which battery to watch.
	Battery() int
	// CommandTimeout bounds each action command. Zero means no limit.
	CommandTimeout() time.Duration
	// Actions are the discharge actions in ascending threshold order.
	Actions() *action.Set
	// ACAction is the optional action fired when AC power is reconnected.
	ACAction() *action.Action

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
