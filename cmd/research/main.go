package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liamashdown/polytools/internal/app"
	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/logging"
	"github.com/liamashdown/polytools/internal/metrics"
	"github.com/liamashdown/polytools/internal/research"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		category   string
	)

	root := &cobra.Command{
		Use:           "research <query>",
		Short:         "Research helper for Polymarket",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := research.ParseCategory(category)
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logging.New(cfg)

			runErr := app.New(cfg, log, cmd.OutOrStdout()).Research(cmd.Context(), cat, strings.Join(args, " "))

			if err := metrics.Push(context.Background(), cfg.PushgatewayURL, "research"); err != nil {
				log.WithError(err).Warn("Failed to push metrics")
			}
			return runErr
		},
	}
	root.Flags().StringVarP(&category, "category", "c", "crypto", "crypto, geopolitical (geo) or sports")
	root.Flags().StringVar(&configPath, "config", "", "YAML config file (defaults to $POLY_CONFIG_FILE)")
	return root
}
