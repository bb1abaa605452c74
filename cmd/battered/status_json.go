package main

import (
	"encoding/json"
	"math"

	"github.com/distatus/battery"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battered/pkg/template"
)

type statusJSON struct {
	Battery statusBatteryJSON `json:"battery"`
	// Watchdog is omitted when there is no config file.
	Watchdog *statusWatchdogJSON `json:"watchdog,omitempty"`
}

type statusBatteryJSON struct {
	Index                int     `json:"index"`
	CurrentChargePercent int     `json:"currentChargePercent"`
	State                string  `json:"state"`
	Charging             bool    `json:"charging"`
	FullCapacityWh       float64 `json:"fullCapacityWh"`
	ChargeRateWatts      float64 `json:"chargeRateWatts"`
	VoltageVolts         float64 `json:"voltageVolts"`
}

type statusWatchdogJSON struct {
	ConfigPath            string   `json:"configPath"`
	IntervalSeconds       float64  `json:"intervalSeconds"`
	CommandTimeoutSeconds float64  `json:"commandTimeoutSeconds"`
	Actions               []string `json:"actions"`
	ACAction              *string  `json:"acAction"`
	// MatchingAction is the index a fresh watchdog would fire, if any.
	MatchingAction *int `json:"matchingAction"`
}

// batteryStateString returns a camelCase string for the battery state.
func batteryStateString(state battery.State) string {
	switch state {
	case battery.Charging:
		return "charging"
	case battery.Discharging:
		return "discharging"
	case battery.Full:
		return "full"
	default:
		return "notCharging"
	}
}

func printStatusJSON(cmd *cobra.Command, data *statusData) error {
	watts := data.batteryInfo.ChargeRate / 1e3
	if data.batteryInfo.State == battery.Discharging {
		watts = -watts
	}

	out := statusJSON{
		Battery: statusBatteryJSON{
			Index:                data.batteryIndex,
			CurrentChargePercent: template.Percentage(data.sample.Charge),
			State:                batteryStateString(data.batteryInfo.State),
			Charging:             data.sample.Charging,
			FullCapacityWh:       math.Round(data.batteryInfo.Full/1e3*10) / 10,
			ChargeRateWatts:      math.Round(watts*10) / 10,
			VoltageVolts:         math.Round(data.batteryInfo.Voltage*100) / 100,
		},
	}

	if cfg := data.config; cfg != nil {
		w := &statusWatchdogJSON{
			ConfigPath:            cfg.Path(),
			IntervalSeconds:       cfg.Interval().Seconds(),
			CommandTimeoutSeconds: cfg.CommandTimeout().Seconds(),
			Actions:               make([]string, 0, cfg.Actions().Len()),
		}
		for _, a := range cfg.Actions().All() {
			w.Actions = append(w.Actions, a.String())
		}
		if ac := cfg.ACAction(); ac != nil {
			s := ac.String()
			w.ACAction = &s
		}
		if data.decision.Fired() {
			i := data.decision.Index
			w.MatchingAction = &i
		}
		out.Watchdog = w
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
