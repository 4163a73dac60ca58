package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/liamashdown/polytools/internal/app"
	"github.com/liamashdown/polytools/internal/scanner"
)

func scanCmd(r *runner) *cobra.Command {
	var a app.Args
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan top markets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd, app.CommandScan, a)
		},
	}
	cmd.Flags().StringVar(&a.Order, "order", scanner.OrderVolume24hr, "sort field: volume24hr or liquidity")
	cmd.Flags().IntVar(&a.Limit, "limit", scanner.DefaultScanLimit, "number of markets to fetch")
	cmd.Flags().BoolVar(&a.MidOnly, "mid-only", false, "only show 10-90% odds")
	return cmd
}

func searchCmd(r *runner) *cobra.Command {
	var a app.Args
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search markets by keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Query = args[0]
			return r.run(cmd, app.CommandSearch, a)
		},
	}
	cmd.Flags().IntVar(&a.Limit, "limit", scanner.DefaultSearchLimit, "number of markets to search")
	return cmd
}

func balanceCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Check USDC balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd, app.CommandBalance, app.Args{})
		},
	}
}

func bookCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "book <token_id>",
		Short: "Show orderbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, app.CommandBook, app.Args{TokenID: args[0]})
		},
	}
}

func orderCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "order <token_id> <BUY|SELL> <price> <size>",
		Short: "Place limit order",
		Long:  "Place a GTC limit order. Price is between 0.01 and 0.99; size is a number of shares.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[2], err)
			}
			size, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[3], err)
			}
			return r.run(cmd, app.CommandOrder, app.Args{
				TokenID: args[0],
				Side:    args[1],
				Price:   price,
				Size:    size,
			})
		},
	}
}

func ordersCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List open orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd, app.CommandOrders, app.Args{})
		},
	}
}

func cancelCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order_id>",
		Short: "Cancel order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, app.CommandCancel, app.Args{OrderID: args[0]})
		},
	}
}

func positionsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd, app.CommandPositions, app.Args{})
		},
	}
}
