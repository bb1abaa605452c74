package battery

import (
	"errors"
	"testing"

	"github.com/distatus/battery"
)

func TestFromBattery(t *testing.T) {
	tests := []struct {
		name         string
		bat          battery.Battery
		wantCharge   float64
		wantCharging bool
		wantErr      bool
	}{
		{
			name:       "discharging",
			bat:        battery.Battery{State: battery.Discharging, Current: 25000, Full: 50000},
			wantCharge: 0.5,
		},
		{
			name:         "charging",
			bat:          battery.Battery{State: battery.Charging, Current: 10000, Full: 50000},
			wantCharge:   0.2,
			wantCharging: true,
		},
		{
			name:       "full is not charging",
			bat:        battery.Battery{State: battery.Full, Current: 50000, Full: 50000},
			wantCharge: 1,
		},
		{
			name:       "over full is clamped",
			bat:        battery.Battery{State: battery.Unknown, Current: 51000, Full: 50000},
			wantCharge: 1,
		},
		{
			name:    "no capacity",
			bat:     battery.Battery{State: battery.Unknown},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bat := tt.bat
			got, err := FromBattery(&bat)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromBattery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrBatteryUnavailable) {
					t.Errorf("FromBattery() error = %v, want ErrBatteryUnavailable", err)
				}
				return
			}
			if got.Charge != tt.wantCharge {
				t.Errorf("Charge = %v, want %v", got.Charge, tt.wantCharge)
			}
			if got.Charging != tt.wantCharging {
				t.Errorf("Charging = %v, want %v", got.Charging, tt.wantCharging)
			}
		})
	}
}

func TestSystemSample(t *testing.T) {
	s := &System{Index: 1, get: func(idx int) (*battery.Battery, error) {
		if idx != 1 {
			t.Errorf("read battery %d, want 1", idx)
		}
		return &battery.Battery{State: battery.Discharging, Current: 30, Full: 100}, nil
	}}

	got, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if got.Charge != 0.3 || got.Charging {
		t.Errorf("Sample() = %+v", got)
	}
}

func TestSystemSampleError(t *testing.T) {
	s := &System{get: func(int) (*battery.Battery, error) {
		return nil, errors.New("no such device")
	}}
	if _, err := s.Sample(); !errors.Is(err, ErrBatteryUnavailable) {
		t.Errorf("Sample() error = %v, want ErrBatteryUnavailable", err)
	}

	s = &System{get: func(int) (*battery.Battery, error) { return nil, nil }}
	if _, err := s.Sample(); !errors.Is(err, ErrBatteryUnavailable) {
		t.Errorf("Sample() error = %v, want ErrBatteryUnavailable", err)
	}
}

func TestSystemSamplePartial(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{
			name: "missing charge rate is usable",
			err:  battery.ErrPartial{ChargeRate: errors.New("open power_now: no such file or directory")},
		},
		{
			name: "missing voltages are usable",
			err: battery.ErrPartial{
				Voltage:       errors.New("open voltage_now: no such file or directory"),
				DesignVoltage: errors.New("open voltage_min_design: no such file or directory"),
			},
		},
		{
			name:    "missing current is not usable",
			err:     battery.ErrPartial{Current: errors.New("open energy_now: no such file or directory")},
			wantErr: true,
		},
		{
			name:    "missing full is not usable",
			err:     battery.ErrPartial{Full: errors.New("open energy_full: no such file or directory")},
			wantErr: true,
		},
		{
			name:    "other errors are not usable",
			err:     errors.New("no such battery"),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &System{get: func(int) (*battery.Battery, error) {
				return &battery.Battery{State: battery.Discharging, Current: 30, Full: 100}, tt.err
			}}

			got, err := s.Sample()
			if tt.wantErr {
				if !errors.Is(err, ErrBatteryUnavailable) {
					t.Errorf("Sample() error = %v, want ErrBatteryUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sample() error = %v", err)
			}
			if got.Charge != 0.3 || got.Charging {
				t.Errorf("Sample() = %+v", got)
			}
		})
	}
}
