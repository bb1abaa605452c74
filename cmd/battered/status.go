package main

import (
	"errors"

	"github.com/distatus/battery"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	bat "github.com/charlie0129/battered/pkg/battery"
	"github.com/charlie0129/battered/pkg/config"
	"github.com/charlie0129/battered/pkg/matcher"
	"github.com/charlie0129/battered/pkg/template"
)

type statusData struct {
	batteryIndex int
	batteryInfo  *battery.Battery
	sample       bat.Sample
	// config is nil when there is no config file.
	config   *config.File
	decision matcher.Decision
}

// fetchStatusData reads the config, if any, and the battery it selects.
func fetchStatusData() (*statusData, error) {
	data := &statusData{}

	conf, err := config.NewFile(configPath)
	switch {
	case err == nil:
		data.config = conf
		data.batteryIndex = conf.Battery()
	case errors.Is(err, config.ErrConfigNotFound):
		logrus.Warnf("no config file at %s, showing battery 0", configPath)
	default:
		return nil, err
	}

	source := bat.NewSystem(data.batteryIndex)
	data.batteryInfo, err = source.Info()
	if err != nil {
		return nil, err
	}

	data.sample, err = bat.FromBattery(data.batteryInfo)
	if err != nil {
		return nil, err
	}

	if data.config != nil {
		// What a freshly started watchdog would do with this reading.
		m := matcher.New(data.config.Actions(), data.config.ACAction())
		data.decision = m.Update(data.sample.Charge, data.sample.Charging)
	}

	return data, nil
}

func NewStatusCommand() *cobra.Command {
	outputJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Show the battery and which action would fire",
		Long: `Show the battery charge and state, and which action a freshly started
watchdog would fire for the current reading.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if outputJSON {
				return printStatusJSON(cmd, data)
			}

			// Battery Info.
			cmd.Println(bold("Battery status:"))
			cmd.Printf("  Battery: %s\n", bold("%d", data.batteryIndex))
			cmd.Printf("  Current charge: %s\n", bold("%d%%", template.Percentage(data.sample.Charge)))

			state := "not charging"
			switch data.batteryInfo.State {
			case battery.Charging:
				state = color.GreenString("charging")
			case battery.Discharging:
				state = color.RedString("discharging")
			case battery.Full:
				state = "full"
			}
			cmd.Printf("  State: %s\n", bold("%s", state))
			cmd.Printf("  Counts as charging: %s\n", bool2Text(data.sample.Charging))
			cmd.Printf("  Full capacity: %s\n", bold("%.1f Wh", data.batteryInfo.Full/1e3))
			if data.batteryInfo.Design > 0 {
				cmd.Printf("  Design capacity: %s\n", bold("%.1f Wh", data.batteryInfo.Design/1e3))
			}
			cmd.Printf("  Charge rate: %s\n", chargeRateText(data.batteryInfo))
			if data.batteryInfo.Voltage > 0 {
				cmd.Printf("  Voltage: %s\n", bold("%.2f V", data.batteryInfo.Voltage))
			}

			cmd.Println()

			// Config.
			cmd.Println(bold("Watchdog configuration:"))
			if data.config == nil {
				cmd.Printf("  No config file at %s. Run 'battered config init' to create one.\n", configPath)
				return nil
			}
			cmd.Printf("  Config file: %s\n", data.config.Path())
			cmd.Printf("  Interval: %s\n", bold("%s", data.config.Interval()))
			if timeout := data.config.CommandTimeout(); timeout > 0 {
				cmd.Printf("  Command timeout: %s\n", bold("%s", timeout))
			} else {
				cmd.Printf("  Command timeout: %s\n", bold("none"))
			}

			cmd.Println("  Actions:")
			for i, a := range data.config.Actions().All() {
				marker := " "
				if data.decision.Fired() && data.decision.Index == i {
					marker = color.New(color.Bold, color.FgYellow).Sprint("→")
				}
				cmd.Printf("  %s [%d] %s\n", marker, i, a.String())
			}
			if ac := data.config.ACAction(); ac != nil {
				cmd.Printf("    [ac] %s\n", ac.String())
			}

			cmd.Println()
			if data.decision.Fired() {
				cmd.Printf("  A fresh watchdog would fire action %s now.\n", bold("%d", data.decision.Index))
			} else {
				cmd.Println("  A fresh watchdog would not fire any action now.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print status as JSON")

	return cmd
}

func chargeRateText(b *battery.Battery) string {
	// Show charge rate in Watts with sign (+ charging, - discharging).
	watts := b.ChargeRate / 1e3
	switch b.State {
	case battery.Charging:
		return color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", watts)
	case battery.Discharging:
		return color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", -watts)
	default:
		return bold("%.1f W", watts)
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
