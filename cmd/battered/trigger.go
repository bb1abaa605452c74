package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battered/pkg/action"
	"github.com/charlie0129/battered/pkg/battery"
	"github.com/charlie0129/battered/pkg/config"
	"github.com/charlie0129/battered/pkg/daemon"
	"github.com/charlie0129/battered/pkg/executor"
	"github.com/charlie0129/battered/pkg/runner"
	"github.com/charlie0129/battered/pkg/template"
)

func NewTriggerCommand() *cobra.Command {
	ac := false
	noDesktop := false
	charge := 0.0

	cmd := &cobra.Command{
		Use:     "trigger [index]",
		Short:   "Fire one configured action now",
		GroupID: gAdvanced,
		Long: `Fire one configured action now, regardless of its threshold.

The index is the position of the action in matching order, as printed by
'battered check'. With --ac the AC action is fired instead and no index is
needed. The current battery charge is used for $percentage unless --charge
is given.`,
		Args: func(_ *cobra.Command, args []string) error {
			if ac && len(args) != 0 {
				return fmt.Errorf("--ac takes no index")
			}
			if !ac && len(args) != 1 {
				return fmt.Errorf("requires exactly one index")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			a, err := selectAction(conf, ac, args)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("charge") {
				if math.IsNaN(charge) || charge < 0 || charge > 1 {
					return fmt.Errorf("invalid charge %v: must be between 0 and 1", charge)
				}
			} else {
				sample, err := battery.NewSystem(conf.Battery()).Sample()
				if err != nil {
					return err
				}
				charge = sample.Charge
			}

			notifier, closeNotifier := daemon.NewNotifier(!noDesktop)
			defer closeNotifier()

			e := executor.New(notifier, &runner.Exec{})
			e.CommandTimeout = conf.CommandTimeout()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logrus.WithFields(logrus.Fields{
				"action":     a.String(),
				"percentage": template.Percentage(charge),
			}).Info("firing action")

			err = e.Fire(ctx, a, template.NewContext(charge))
			if err != nil {
				return err
			}

			logrus.Info("action done")
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&ac, "ac", false, "Fire the AC action")
	f.BoolVar(&noDesktop, "no-desktop", false, "Write notifications to the log instead of the desktop notification server")
	f.Float64Var(&charge, "charge", charge, "Charge fraction used to render notifications, between 0 and 1")

	return cmd
}

func selectAction(conf config.Config, ac bool, args []string) (action.Action, error) {
	if ac {
		a := conf.ACAction()
		if a == nil {
			return action.Action{}, fmt.Errorf("no ac_action configured")
		}
		return *a, nil
	}

	index, err := parseIntArg(args, "index")
	if err != nil {
		return action.Action{}, err
	}
	if index < 0 || index >= conf.Actions().Len() {
		return action.Action{}, fmt.Errorf("invalid index %d: there are %d actions", index, conf.Actions().Len())
	}
	return conf.Actions().At(index), nil
}
