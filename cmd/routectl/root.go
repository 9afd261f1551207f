package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-router/internal/common"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/services/market"
	"github.com/hxuan190/clmm-router/internal/services/router"
)

// routeFlags are shared by every subcommand that routes a swap.
type routeFlags struct {
	fixture       string
	input         string
	output        string
	amount        uint64
	mode          string
	limit         string
	arraysPerSide int
	parallelism   int
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "routectl",
		Short:         "Quote and bound CLMM swaps against a snapshot fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			common.SetupLogger(logLevel, "dev")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd())
	root.AddCommand(envelopeCmd())
	return root
}

func (f *routeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fixture, "fixture", "./data/pools.yaml", "snapshot fixture file")
	cmd.Flags().StringVar(&f.input, "input", "", "input mint")
	cmd.Flags().StringVar(&f.output, "output", "", "output mint")
	cmd.Flags().Uint64Var(&f.amount, "amount", 0, "specified amount in base units")
	cmd.Flags().StringVar(&f.mode, "mode", "exact_in", "exact_in or exact_out")
	cmd.Flags().StringVar(&f.limit, "sqrt-price-limit", "", "Q64.64 sqrt price limit, empty for none")
	cmd.Flags().IntVar(&f.arraysPerSide, "arrays-per-side", market.DefaultArraysPerSide, "tick arrays fetched on each side of the current one")
	cmd.Flags().IntVar(&f.parallelism, "parallelism", router.DefaultParallelism, "concurrent pool evaluations")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *routeFlags) priceLimit() (*uint256.Int, error) {
	if f.limit == "" {
		return nil, nil
	}
	v, err := uint256.FromDecimal(f.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPriceLimit, err)
	}
	return v, nil
}

// route loads the fixture and picks the best pool for the flags.
func (f *routeFlags) route(ctx context.Context) (*domain.RouteSelection, *uint256.Int, error) {
	mode, err := domain.ParseSwapMode(f.mode)
	if err != nil {
		return nil, nil, err
	}
	limit, err := f.priceLimit()
	if err != nil {
		return nil, nil, err
	}
	provider, err := market.LoadFixture(f.fixture, f.arraysPerSide)
	if err != nil {
		return nil, nil, err
	}
	r := router.NewRouter(router.Config{Parallelism: f.parallelism})
	sel, err := r.RouteFromProvider(ctx, router.RouteRequest{
		InputMint:         f.input,
		OutputMint:        f.output,
		Mode:              mode,
		Amount:            f.amount,
		SqrtPriceLimitX64: limit,
	}, provider)
	return sel, limit, err
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
