package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/charlie0129/battered/pkg/battery"
	"github.com/charlie0129/battered/pkg/config"
	"github.com/charlie0129/battered/pkg/executor"
)

var (
	logLevel   = "info"
	configPath = config.DefaultPath()

	logFile       = ""
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	if logFile != "" {
		// Colors are disabled by logrus since the output is no longer a
		// terminal.
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}))
	}

	return nil
}

func handleCmdError(err error) {
	var actionErr *executor.ActionFailedError

	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		fmt.Fprintf(os.Stderr, "\nError: no config file at %s\n", configPath)
		fmt.Fprintln(os.Stderr, "  - Run 'battered config init' to write an example config")
		fmt.Fprintln(os.Stderr, "  - Or point to an existing one with '--config'")
	case errors.Is(err, config.ErrConfigInvalid):
		fmt.Fprintln(os.Stderr, "\nError: the config file is invalid")
		fmt.Fprintf(os.Stderr, "Fix %s and run 'battered check' to validate it.\n", configPath)
	case errors.Is(err, battery.ErrBatteryUnavailable):
		fmt.Fprintln(os.Stderr, "\nError: cannot read the battery")
		fmt.Fprintln(os.Stderr, "Does this machine have a battery? Check the 'battery' index in your config.")
	case errors.As(err, &actionErr):
		fmt.Fprintf(os.Stderr, "\nError: action %s failed\n", actionErr.Action.String())
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battered",
		Short: "battered runs commands and shows notifications when the battery runs low",
		Long: `battered is a battery watchdog.

It reads the battery charge at a fixed interval and, when the charge drops below
a configured threshold, shows a desktop notification and/or runs a command.
Each threshold fires once until the battery is charged again.

Config file: ` + config.DefaultPath(),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVarP(&configPath, "config", "c", configPath, "config file path")
	globalFlags.StringVar(&logFile, "log-file", logFile, "also write logs to this file, rotated by size")
	globalFlags.IntVar(&logMaxSizeMB, "log-max-size", logMaxSizeMB, "maximum size in megabytes of the log file before it gets rotated")
	globalFlags.IntVar(&logMaxBackups, "log-max-backups", logMaxBackups, "maximum number of rotated log files to keep")
	globalFlags.IntVar(&logMaxAgeDays, "log-max-age", logMaxAgeDays, "maximum number of days to keep rotated log files")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewWatchCommand(),
		NewStatusCommand(),
		NewCheckCommand(),
		NewTriggerCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return cmd
}
