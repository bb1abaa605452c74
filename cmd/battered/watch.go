package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battered/pkg/daemon"
	"github.com/charlie0129/battered/pkg/version"
)

// NewWatchCommand .
func NewWatchCommand() *cobra.Command {
	noDesktop := false

	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"daemon"},
		Short:   "Watch the battery in the foreground",
		GroupID: gBasic,
		Long: `Watch the battery in the foreground.

The battery is read every 'interval' seconds. When the charge drops below the
threshold of an action, its notification is shown and its command is run. If a
command fails, battered shows a critical notification and exits with status 1.

Send SIGHUP to reload the config file. All actions are armed again after a
successful reload.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
				"config":  configPath,
			}).Info("battered starting")
			return daemon.Run(configPath, !noDesktop)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&noDesktop, "no-desktop", false,
		"Write notifications to the log instead of the desktop notification server.")

	return cmd
}
