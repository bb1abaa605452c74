package daemon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battered/pkg/action"
	"github.com/charlie0129/battered/pkg/battery"
	"github.com/charlie0129/battered/pkg/config"
	"github.com/charlie0129/battered/pkg/executor"
	"github.com/charlie0129/battered/pkg/matcher"
	"github.com/charlie0129/battered/pkg/notify"
)

type fakeConfig struct {
	interval time.Duration
	actions  *action.Set
	acAction *action.Action
	loadErr  error
	loads    int
}

var _ config.Config = &fakeConfig{}

func newFakeConfig(t *testing.T, interval time.Duration, actions ...action.Action) *fakeConfig {
	t.Helper()
	set, err := action.NewSet(actions)
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	return &fakeConfig{interval: interval, actions: set}
}

func (c *fakeConfig) Interval() time.Duration       { return c.interval }
func (c *fakeConfig) Battery() int                  { return 0 }
func (c *fakeConfig) CommandTimeout() time.Duration { return 0 }
func (c *fakeConfig) Actions() *action.Set          { return c.actions }
func (c *fakeConfig) ACAction() *action.Action      { return c.acAction }
func (c *fakeConfig) LogrusFields() logrus.Fields   { return logrus.Fields{} }
func (c *fakeConfig) Save() error                   { return nil }

func (c *fakeConfig) Load() error {
	c.loads++
	return c.loadErr
}

// fakeSource returns samples in order and repeats the last one.
type fakeSource struct {
	samples []battery.Sample
	err     error
	calls   int
	opened  int
}

func (s *fakeSource) open(int) battery.Source {
	s.opened++
	return s
}

func (s *fakeSource) Sample() (battery.Sample, error) {
	s.calls++
	if s.err != nil {
		return battery.Sample{}, s.err
	}
	i := s.calls - 1
	if i >= len(s.samples) {
		i = len(s.samples) - 1
	}
	return s.samples[i], nil
}

type fakeNotifier struct {
	messages []notify.Message
}

func (n *fakeNotifier) Notify(_ context.Context, m notify.Message) error {
	n.messages = append(n.messages, m)
	return nil
}

type fakeRunner struct {
	calls [][]string
	err   error
}

func (r *fakeRunner) Run(_ context.Context, argv []string) error {
	r.calls = append(r.calls, argv)
	return r.err
}

func lowNotification(summary string) *action.Notification {
	return &action.Notification{
		Summary: summary,
		Body:    "$percentage% left",
		Urgency: action.Normal,
		Icon:    action.DefaultIcon,
		Timeout: action.TimeoutDefault(),
	}
}

func TestWatchdogTick(t *testing.T) {
	conf := newFakeConfig(t, time.Minute,
		action.Action{Threshold: 0.5, Notification: lowNotification("Battery low")},
		action.Action{Threshold: 0.2, Command: []string{"systemctl", "suspend"}},
	)
	src := &fakeSource{samples: []battery.Sample{
		{Charge: 0.3},
		{Charge: 0.3},
		{Charge: 0.1},
		{Charge: 0.1, Charging: true},
		{Charge: 0.1},
	}}
	n := &fakeNotifier{}
	r := &fakeRunner{}
	w := NewWatchdog(conf, src.open, n, r)

	want := []matcher.Reason{matcher.Fire, matcher.AlreadyFired, matcher.Fire, matcher.Reset, matcher.Fire}
	for i, reason := range want {
		d, err := w.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: Tick() error = %v", i, err)
		}
		if d.Reason != reason {
			t.Errorf("tick %d: reason = %v, want %v", i, d.Reason, reason)
		}
	}

	if len(n.messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(n.messages))
	}
	if n.messages[0].Body != "30% left" {
		t.Errorf("Body = %q, want %q", n.messages[0].Body, "30% left")
	}
	if len(r.calls) != 2 {
		t.Fatalf("ran %d commands, want 2", len(r.calls))
	}
	if strings.Join(r.calls[0], " ") != "systemctl suspend" {
		t.Errorf("ran %q", r.calls[0])
	}
}

func TestWatchdogTickACAction(t *testing.T) {
	conf := newFakeConfig(t, time.Minute, action.Action{Threshold: 0.2})
	conf.acAction = &action.Action{Kind: action.AC, Command: []string{"powerprofilesctl", "set", "performance"}}
	src := &fakeSource{samples: []battery.Sample{
		{Charge: 0.5, Charging: true},
		{Charge: 0.1},
		{Charge: 0.15, Charging: true},
		{Charge: 0.2, Charging: true},
	}}
	r := &fakeRunner{}
	w := NewWatchdog(conf, src.open, nil, r)

	want := []matcher.Reason{matcher.NoMatch, matcher.Fire, matcher.Fire, matcher.NoMatch}
	for i, reason := range want {
		d, err := w.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: Tick() error = %v", i, err)
		}
		if d.Reason != reason {
			t.Errorf("tick %d: reason = %v, want %v", i, d.Reason, reason)
		}
	}
	if len(r.calls) != 1 || r.calls[0][0] != "powerprofilesctl" {
		t.Errorf("ran %q, want the AC action once", r.calls)
	}
}

func TestWatchdogTickActionFailure(t *testing.T) {
	conf := newFakeConfig(t, time.Minute, action.Action{
		Threshold:    0.2,
		Command:      []string{"false"},
		Notification: lowNotification("Battery low"),
	})
	src := &fakeSource{samples: []battery.Sample{{Charge: 0.1}}}
	n := &fakeNotifier{}
	w := NewWatchdog(conf, src.open, n, &fakeRunner{err: errors.New("exit status 1")})

	_, err := w.Tick(context.Background())
	var failed *executor.ActionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Tick() error = %v, want *executor.ActionFailedError", err)
	}

	if len(n.messages) != 2 {
		t.Fatalf("got %d notifications, want 2", len(n.messages))
	}
	last := n.messages[1]
	if last.Summary != "battered action failed" || last.Urgency != action.Critical {
		t.Errorf("failure notification = %+v", last)
	}
	if !strings.Contains(last.Body, "exit status 1") {
		t.Errorf("failure body = %q, want the reason", last.Body)
	}
}

func TestWatchdogTickBatteryUnavailable(t *testing.T) {
	conf := newFakeConfig(t, time.Minute, action.Action{Threshold: 0.2})
	w := NewWatchdog(conf, (&fakeSource{err: battery.ErrBatteryUnavailable}).open, nil, &fakeRunner{})

	d, err := w.Tick(context.Background())
	if !errors.Is(err, battery.ErrBatteryUnavailable) {
		t.Errorf("Tick() error = %v, want ErrBatteryUnavailable", err)
	}
	if d.Fired() {
		t.Error("decision fired without a sample")
	}
}

func TestWatchdogReload(t *testing.T) {
	conf := newFakeConfig(t, time.Minute, action.Action{Threshold: 0.5, Command: []string{"true"}})
	src := &fakeSource{samples: []battery.Sample{{Charge: 0.3}}}
	r := &fakeRunner{}
	w := NewWatchdog(conf, src.open, nil, r)

	if d, _ := w.Tick(context.Background()); d.Reason != matcher.Fire {
		t.Fatalf("first tick reason = %v, want fire", d.Reason)
	}

	conf.loadErr = errors.New("invalid config")
	if err := w.Reload(); err == nil {
		t.Fatal("Reload() error = nil, want error")
	}
	if d, _ := w.Tick(context.Background()); d.Reason != matcher.AlreadyFired {
		t.Errorf("after failed reload reason = %v, want already fired", d.Reason)
	}

	conf.loadErr = nil
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if d, _ := w.Tick(context.Background()); d.Reason != matcher.Fire {
		t.Errorf("after reload reason = %v, want fire", d.Reason)
	}
	if len(r.calls) != 2 {
		t.Errorf("ran %d commands, want 2", len(r.calls))
	}
}

func TestWatchdogCheckMissedTicks(t *testing.T) {
	conf := newFakeConfig(t, time.Minute, action.Action{Threshold: 0.2})
	w := NewWatchdog(conf, (&fakeSource{samples: []battery.Sample{{Charge: 0.9}}}).open, nil, &fakeRunner{})

	now := time.Now()
	if w.checkMissedTicks(now) {
		t.Error("missed ticks reported without records")
	}

	w.recorder.AddRecord(now.Add(-61 * time.Second))
	if w.checkMissedTicks(now) {
		t.Error("missed ticks reported after one interval")
	}

	w.recorder.ClearRecords()
	w.recorder.AddRecord(now.Add(-10 * time.Minute))
	if !w.checkMissedTicks(now) {
		t.Error("missed ticks not reported after ten intervals")
	}
}
