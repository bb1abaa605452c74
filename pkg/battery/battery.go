// Package battery reads the state of charge from the operating system.
package battery

import (
	"errors"
	"math"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBatteryUnavailable is returned when the selected battery cannot be
	// read.
	ErrBatteryUnavailable = errors.New("battery unavailable")
)

// Sample is one reading of the battery.
type Sample struct {
	// Charge is the state of charge in [0, 1].
	Charge   float64
	Charging bool
	// State is the raw state reported by the OS, for display.
	State string
}

// LogrusFields returns s as log fields.
func (s Sample) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"charge":   s.Charge,
		"charging": s.Charging,
		"state":    s.State,
	}
}

// Source produces battery samples.
type Source interface {
	Sample() (Sample, error)
}

// System reads a battery through github.com/distatus/battery.
type System struct {
	// Index selects the battery when there is more than one.
	Index int

	// get is replaced in tests.
	get func(idx int) (*battery.Battery, error)
}

var _ Source = &System{}

// NewSystem returns a source for the battery at index.
func NewSystem(index int) *System {
	return &System{Index: index, get: battery.Get}
}

// Sample implements Source.
func (s *System) Sample() (Sample, error) {
	bat, err := s.Info()
	if err != nil {
		return Sample{}, err
	}

	return FromBattery(bat)
}

// Info returns the raw reading of the battery, including rates and voltages.
func (s *System) Info() (*battery.Battery, error) {
	get := s.get
	if get == nil {
		get = battery.Get
	}

	bat, err := get(s.Index)
	if err != nil && !usablePartial(err) {
		return nil, pkgerrors.Wrapf(errors.Join(ErrBatteryUnavailable, err), "failed to read battery %d", s.Index)
	}
	if bat == nil {
		return nil, pkgerrors.Wrapf(ErrBatteryUnavailable, "battery %d not found", s.Index)
	}
	if err != nil {
		logrus.WithError(err).WithField("battery", s.Index).Trace("battery reading is partial")
	}

	return bat, nil
}

// usablePartial reports whether err is a partial reading that still has the
// fields a Sample is computed from.
func usablePartial(err error) bool {
	var partial battery.ErrPartial
	if !errors.As(err, &partial) {
		return false
	}
	return partial.Current == nil && partial.Full == nil
}

// FromBattery converts a distatus/battery reading to a Sample.
func FromBattery(bat *battery.Battery) (Sample, error) {
	if bat.Full <= 0 || math.IsNaN(bat.Current) {
		return Sample{}, pkgerrors.Wrapf(ErrBatteryUnavailable, "battery reports no capacity (current %v, full %v)", bat.Current, bat.Full)
	}

	charge := bat.Current / bat.Full
	if charge < 0 {
		charge = 0
	}
	if charge > 1 {
		charge = 1
	}

	return Sample{
		Charge:   charge,
		Charging: bat.State == battery.Charging,
		State:    bat.State.String(),
	}, nil
}
