package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battered/pkg/config"
)

func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   "Validate the config file",
		GroupID: gBasic,
		Long: `Validate the config file and list the actions in the order they are
matched, lowest threshold first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}
			logrus.WithFields(conf.LogrusFields()).Debug("config loaded")

			cmd.Printf("%s is valid\n", bold("%s", conf.Path()))
			cmd.Printf("  Interval: %s\n", conf.Interval())
			cmd.Printf("  Battery: %d\n", conf.Battery())
			if timeout := conf.CommandTimeout(); timeout > 0 {
				cmd.Printf("  Command timeout: %s\n", timeout)
			}

			cmd.Println("  Actions, in matching order:")
			for i, a := range conf.Actions().All() {
				cmd.Printf("    [%d] %s\n", i, a.String())
			}
			if ac := conf.ACAction(); ac != nil {
				cmd.Printf("  AC action:\n    %s\n", ac.String())
			}

			return nil
		},
	}
}
