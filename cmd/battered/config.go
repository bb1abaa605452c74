package main

import (
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battered/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage the config file",
		GroupID: gAdvanced,
	}

	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigPathCommand(),
	)

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		Long: `Write an example config file to the config path.

An existing file is not overwritten unless --force is given.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return pkgerrors.Errorf("%s already exists, use --force to overwrite it", configPath)
			}

			conf, err := config.NewFileFromConfig(config.ExampleConfig(), configPath)
			if err != nil {
				return err
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("example config written to %s", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(configPath)
		},
	}
}
