package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/liamashdown/polytools/internal/app"
	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/logging"
	"github.com/liamashdown/polytools/internal/metrics"
)

// errUsage signals that help has already been printed.
var errUsage = errors.New("no command given")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type runner struct {
	configPath string
}

// run loads configuration, executes cmd and pushes metrics.
func (r *runner) run(cmd *cobra.Command, command app.Command, args app.Args) error {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg)
	log.WithFields(logrus.Fields{
		"command": command.String(),
		"proxy":   cfg.ProxyURL,
		"funder":  cfg.FunderAddress,
	}).Debug("Configuration loaded")

	runErr := app.New(cfg, log, cmd.OutOrStdout()).Run(cmd.Context(), command, args)

	if err := metrics.Push(context.Background(), cfg.PushgatewayURL, "poly"); err != nil {
		log.WithError(err).Warn("Failed to push metrics")
	}
	return runErr
}

func newRootCmd() *cobra.Command {
	r := &runner{}

	root := &cobra.Command{
		Use:           "poly",
		Short:         "Polymarket CLI: scan markets, check balance, place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errUsage
		},
	}
	root.PersistentFlags().StringVar(&r.configPath, "config", "", "YAML config file (defaults to $POLY_CONFIG_FILE)")

	root.AddCommand(
		scanCmd(r),
		searchCmd(r),
		balanceCmd(r),
		bookCmd(r),
		orderCmd(r),
		ordersCmd(r),
		cancelCmd(r),
		positionsCmd(r),
	)
	return root
}
