package config

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/pelletier/go-toml/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/action"
	"github.com/charlie0129/battered/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Interval:       ptr.To[int64](60),
		Battery:        ptr.To(0),
		CommandTimeout: ptr.To[int64](0),
	}
	defaultUrgency       = "Normal"
	defaultNotifyTimeout = int64(-1)
	defaultACPercentage  = 0.0
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	actions  *action.Set
	acAction *action.Action
	mu       *sync.RWMutex
	filepath string
}

// NewFile reads and validates the config file at configPath.
func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// NewFileFromConfig wraps c without reading configPath. c must be valid; it
// is typically the example config written by `config init`.
func NewFileFromConfig(c *RawFileConfig, configPath string) (*File, error) {
	if c == nil {
		c = ExampleConfig()
	}

	actions, acAction, err := c.build()
	if err != nil {
		return nil, err
	}

	return &File{
		c:        c,
		actions:  actions,
		acAction: acAction,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}, nil
}

type RawFileConfig struct {
	// Interval in seconds.
	Interval *int64 `toml:"interval,omitempty" comment:"Seconds between two battery readings"`
	Battery  *int   `toml:"battery,omitempty" comment:"Index of the battery to watch"`
	// CommandTimeout in seconds.
	CommandTimeout *int64      `toml:"command_timeout,omitempty" comment:"Seconds a command may run, 0 waits forever"`
	Actions        []RawAction `toml:"action" comment:"Each action fires once when the charge drops below percentage"`
	ACAction       *RawAction  `toml:"ac_action,omitempty" comment:"Fired once when AC power is connected after an action fired"`
}

type RawAction struct {
	Percentage *float64 `toml:"percentage,omitempty" comment:"Fraction between 0 and 1"`
	// Command is split into argv like a shell would, without expansions.
	Command *string    `toml:"command,omitempty"`
	Notify  *RawNotify `toml:"notify,omitempty"`
}

type RawNotify struct {
	Summary *string `toml:"summary,omitempty"`
	Body    *string `toml:"body,omitempty"`
	Urgency *string `toml:"urgency,omitempty" comment:"Low, Normal or Critical"`
	Icon    *string `toml:"icon,omitempty"`
	// Timeout in milliseconds. 0 never expires, negative uses the server
	// default.
	Timeout *int64 `toml:"timeout,omitempty" comment:"Milliseconds, 0 never expires"`
}

// ExampleConfig is the config written by `config init`.
func ExampleConfig() *RawFileConfig {
	return &RawFileConfig{
		Interval: ptr.To[int64](60),
		Actions: []RawAction{
			{
				Percentage: ptr.To(0.2),
				Notify: &RawNotify{
					Summary: ptr.To("Battery low"),
					Body:    ptr.To("$percentage% remaining"),
					Urgency: ptr.To("Normal"),
					Icon:    ptr.To("battery-low"),
				},
			},
			{
				Percentage: ptr.To(0.1),
				Notify: &RawNotify{
					Summary: ptr.To("Battery critical"),
					Body:    ptr.To("$percentage% remaining, plug in now"),
					Urgency: ptr.To("Critical"),
					Icon:    ptr.To("battery-caution"),
					Timeout: ptr.To[int64](0),
				},
			},
			{
				Percentage: ptr.To(0.05),
				Command:    ptr.To("systemctl suspend"),
			},
		},
	}
}

func (c *RawFileConfig) validate() error {
	if c.Interval != nil && *c.Interval <= 0 {
		return pkgerrors.Wrapf(ErrConfigInvalid, "interval must be positive, got %d", *c.Interval)
	}
	if c.Battery != nil && *c.Battery < 0 {
		return pkgerrors.Wrapf(ErrConfigInvalid, "battery must not be negative, got %d", *c.Battery)
	}
	if c.CommandTimeout != nil && *c.CommandTimeout < 0 {
		return pkgerrors.Wrapf(ErrConfigInvalid, "command_timeout must not be negative, got %d", *c.CommandTimeout)
	}
	if len(c.Actions) == 0 {
		return pkgerrors.Wrap(ErrConfigInvalid, "at least one [[action]] is required")
	}
	return nil
}

func (c *RawFileConfig) build() (*action.Set, *action.Action, error) {
	if err := c.validate(); err != nil {
		return nil, nil, err
	}

	actions := make([]action.Action, 0, len(c.Actions))
	for i, ra := range c.Actions {
		a, err := ra.toAction(action.Discharge)
		if err != nil {
			return nil, nil, pkgerrors.Wrapf(err, "action %d", i)
		}
		actions = append(actions, a)
	}

	set, err := action.NewSet(actions)
	if err != nil {
		return nil, nil, pkgerrors.Wrapf(ErrConfigInvalid, "%v", err)
	}

	var acAction *action.Action
	if c.ACAction != nil {
		a, err := c.ACAction.toAction(action.AC)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(err, "ac_action")
		}
		acAction = &a
	}

	return set, acAction, nil
}

func (ra RawAction) toAction(kind action.Kind) (action.Action, error) {
	a := action.Action{Kind: kind}

	switch {
	case ra.Percentage != nil:
		a.Threshold = *ra.Percentage
	case kind == action.AC:
		a.Threshold = defaultACPercentage
	default:
		return a, pkgerrors.Wrap(ErrConfigInvalid, "percentage is required")
	}
	if math.IsNaN(a.Threshold) || a.Threshold < 0 || a.Threshold > 1 {
		return a, pkgerrors.Wrapf(ErrConfigInvalid, "percentage must be between 0 and 1, got %v", a.Threshold)
	}

	if ra.Command != nil {
		argv, err := shellwords.Parse(*ra.Command)
		if err != nil {
			return a, pkgerrors.Wrapf(ErrConfigInvalid, "failed to split command %q: %v", *ra.Command, err)
		}
		if len(argv) == 0 {
			return a, pkgerrors.Wrap(ErrConfigInvalid, "command must not be empty")
		}
		a.Command = argv
	}

	if ra.Notify != nil {
		n, err := ra.Notify.toNotification()
		if err != nil {
			return a, err
		}
		a.Notification = n
	}

	if err := a.Validate(); err != nil {
		return a, pkgerrors.Wrapf(ErrConfigInvalid, "%v", err)
	}
	return a, nil
}

func (rn RawNotify) toNotification() (*action.Notification, error) {
	urgencyString := defaultUrgency
	if rn.Urgency != nil {
		urgencyString = *rn.Urgency
	}
	urgency, err := action.ParseUrgency(urgencyString)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrConfigInvalid, "failed to parse notification urgency: %v", err)
	}

	if rn.Summary == nil {
		return nil, pkgerrors.Wrap(ErrConfigInvalid, "notify.summary is required")
	}

	n := &action.Notification{
		Summary: *rn.Summary,
		Urgency: urgency,
		Icon:    action.DefaultIcon,
		Timeout: action.TimeoutFromInt(defaultNotifyTimeout),
	}
	if rn.Body != nil {
		n.Body = *rn.Body
	}
	if rn.Icon != nil {
		n.Icon = *rn.Icon
	}
	if rn.Timeout != nil {
		n.Timeout = action.TimeoutFromInt(*rn.Timeout)
	}
	return n, nil
}

func (f *File) Interval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	interval := *defaultFileConfig.Interval
	if f.c.Interval != nil {
		interval = *f.c.Interval
	}

	return time.Duration(interval) * time.Second
}

func (f *File) Battery() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Battery != nil {
		return *f.c.Battery
	}
	return *defaultFileConfig.Battery
}

func (f *File) CommandTimeout() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	timeout := *defaultFileConfig.CommandTimeout
	if f.c.CommandTimeout != nil {
		timeout = *f.c.CommandTimeout
	}

	return time.Duration(timeout) * time.Second
}

func (f *File) Actions() *action.Set {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.actions
}

func (f *File) ACAction() *action.Action {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.acAction
}

// Path returns the file the config is read from.
func (f *File) Path() string {
	return f.filepath
}

// Load reads the file. On error the previously loaded config is kept.
func (f *File) Load() error {
	b, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return pkgerrors.Wrapf(ErrConfigNotFound, "%s", f.filepath)
		}
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	conf := RawFileConfig{}
	if len(bytes.TrimSpace(b)) > 0 {
		err = toml.Unmarshal(b, &conf)
		if err != nil {
			return pkgerrors.Wrapf(ErrConfigInvalid, "failed to parse config at %s: %v", f.filepath, err)
		}
	}

	actions, acAction, err := conf.build()
	if err != nil {
		return pkgerrors.Wrapf(err, "config at %s", f.filepath)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c = &conf
	f.actions = actions
	f.acAction = acAction

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	err := os.MkdirAll(filepath.Dir(f.filepath), 0755)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory for %s", f.filepath)
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := toml.NewEncoder(fp)
	enc.SetIndentTables(true)
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	actions := make([]string, 0, f.Actions().Len())
	for _, a := range f.Actions().All() {
		actions = append(actions, a.String())
	}

	fields := logrus.Fields{
		"interval":       f.Interval().String(),
		"battery":        f.Battery(),
		"commandTimeout": f.CommandTimeout().String(),
		"actions":        strings.Join(actions, "; "),
	}
	if ac := f.ACAction(); ac != nil {
		fields["acAction"] = ac.String()
	}
	return fields
}
