package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/charlie0129/battered/pkg/action"
)

type fakeBusObject struct {
	method string
	args   []interface{}
	err    error
}

func (f *fakeBusObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.method = method
	f.args = args
	if f.err != nil {
		return &dbus.Call{Err: f.err}
	}
	return &dbus.Call{Body: []interface{}{uint32(7)}}
}

func TestDBusNotify(t *testing.T) {
	obj := &fakeBusObject{}
	connects := 0
	d := &DBus{connect: func() (busObject, *dbus.Conn, error) {
		connects++
		return obj, nil, nil
	}}

	m := Message{
		Summary: "Battery low",
		Body:    "15% left",
		Icon:    "battery-caution",
		Urgency: action.Critical,
		Timeout: action.TimeoutAfter(5000),
	}
	if err := d.Notify(context.Background(), m); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := d.Notify(context.Background(), m); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if connects != 1 {
		t.Errorf("connected %d times, want 1", connects)
	}
	if obj.method != "org.freedesktop.Notifications.Notify" {
		t.Errorf("method = %q", obj.method)
	}
	if len(obj.args) != 8 {
		t.Fatalf("got %d args, want 8", len(obj.args))
	}
	if obj.args[0] != AppName || obj.args[2] != "battery-caution" || obj.args[3] != "Battery low" || obj.args[4] != "15% left" {
		t.Errorf("unexpected args %v", obj.args)
	}
	if got := obj.args[7]; got != int32(5000) {
		t.Errorf("expire_timeout = %v, want 5000", got)
	}
	hints, ok := obj.args[6].(map[string]dbus.Variant)
	if !ok {
		t.Fatalf("hints have type %T", obj.args[6])
	}
	if got := hints["urgency"].Value(); got != byte(2) {
		t.Errorf("urgency hint = %v, want 2", got)
	}
}

func TestDBusNotifyReconnectsAfterError(t *testing.T) {
	obj := &fakeBusObject{err: errors.New("no such name")}
	connects := 0
	d := &DBus{connect: func() (busObject, *dbus.Conn, error) {
		connects++
		return obj, nil, nil
	}}

	if err := d.Notify(context.Background(), Message{Summary: "x"}); err == nil {
		t.Fatal("Notify() error = nil, want error")
	}
	obj.err = nil
	if err := d.Notify(context.Background(), Message{Summary: "x"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if connects != 2 {
		t.Errorf("connected %d times, want 2", connects)
	}
}

func TestDBusNotifyConnectError(t *testing.T) {
	d := &DBus{connect: func() (busObject, *dbus.Conn, error) {
		return nil, nil, errors.New("no session bus")
	}}
	if err := d.Notify(context.Background(), Message{Summary: "x"}); err == nil {
		t.Error("Notify() error = nil, want error")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestLogNotify(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := &Log{Logger: logger}

	if err := l.Notify(context.Background(), Message{Summary: "low", Urgency: action.Low}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := l.Notify(context.Background(), Message{Summary: "critical", Urgency: action.Critical}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["summary"] != "low" {
		t.Errorf("unexpected first entry %v", entries[0].Data)
	}
	if entries[1].Level != logrus.WarnLevel {
		t.Errorf("critical notification logged at %s, want warning", entries[1].Level)
	}
}

type failingSink struct {
	calls int
}

func (f *failingSink) Notify(context.Context, Message) error {
	f.calls++
	return errors.New("no session bus")
}

func TestFallbackNotify(t *testing.T) {
	logger, hook := test.NewNullLogger()
	primary := &failingSink{}
	f := &Fallback{Primary: primary, Secondary: &Log{Logger: logger}}

	if err := f.Notify(context.Background(), Message{Summary: "low"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1", primary.calls)
	}
	if len(hook.AllEntries()) != 1 {
		t.Errorf("got %d log entries, want 1", len(hook.AllEntries()))
	}

	both := &Fallback{Primary: &failingSink{}, Secondary: &failingSink{}}
	if err := both.Notify(context.Background(), Message{Summary: "low"}); err == nil {
		t.Error("Notify() error = nil, want error when both sinks fail")
	}
}
