package notify

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	dbusDest      = "org.freedesktop.Notifications"
	dbusPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	dbusNotify    = dbusDest + ".Notify"
	dbusUrgencyID = "urgency"
)

// busObject is the part of dbus.BusObject used by DBus.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBus sends freedesktop notifications over the session bus. The bus is
// connected lazily on the first notification and reused afterwards.
type DBus struct {
	mu   sync.Mutex
	conn *dbus.Conn
	obj  busObject

	// connect is replaced in tests.
	connect func() (busObject, *dbus.Conn, error)
}

var _ Sink = &DBus{}

// NewDBus returns a sink using the user's session bus.
func NewDBus() *DBus {
	return &DBus{connect: connectSessionBus}
}

func connectSessionBus() (busObject, *dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "failed to connect to session bus")
	}
	return conn.Object(dbusDest, dbusPath), conn, nil
}

func (d *DBus) object() (busObject, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.obj != nil {
		return d.obj, nil
	}

	obj, conn, err := d.connect()
	if err != nil {
		return nil, err
	}
	d.obj = obj
	d.conn = conn
	return obj, nil
}

// Notify implements Sink.
func (d *DBus) Notify(ctx context.Context, m Message) error {
	obj, err := d.object()
	if err != nil {
		return err
	}

	hints := map[string]dbus.Variant{
		dbusUrgencyID: dbus.MakeVariant(byte(m.Urgency)),
	}

	call := obj.CallWithContext(ctx, dbusNotify, 0,
		AppName,                   // app_name
		uint32(0),                 // replaces_id
		m.Icon,                    // app_icon
		m.Summary,                 // summary
		m.Body,                    // body
		[]string{},                // actions
		hints,                     // hints
		m.Timeout.ExpireTimeout(), // expire_timeout
	)
	if call.Err != nil {
		// Drop the connection so the next notification reconnects, e.g.
		// after the notification daemon restarts.
		d.reset()
		return pkgerrors.Wrapf(call.Err, "failed to send notification %q", m.Summary)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		logrus.WithField("id", id).Trace("notification sent")
	}
	return nil
}

func (d *DBus) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			logrus.Debugf("failed to close session bus connection: %v", err)
		}
	}
	d.conn = nil
	d.obj = nil
}

// Close closes the session bus connection, if any.
func (d *DBus) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	d.obj = nil
	return err
}
