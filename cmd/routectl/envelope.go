package main

import (
	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/services/builder"
	"github.com/hxuan190/clmm-router/internal/services/policy"
)

type envelopeOutput struct {
	Selection *domain.RouteSelection    `json:"selection"`
	Envelope  *domain.ExecutionEnvelope `json:"envelope"`
}

func envelopeCmd() *cobra.Command {
	var (
		f   routeFlags
		bps uint16
	)
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Route and print the slippage-bounded execution envelope as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, limit, err := f.route(cmd.Context())
			if err != nil {
				return err
			}
			env, err := builder.BuildEnvelope(sel, domain.SlippagePolicy{Bps: bps}, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, envelopeOutput{Selection: sel, Envelope: env})
		},
	}
	f.register(cmd)
	cmd.Flags().Uint16Var(&bps, "slippage-bps", policy.DefaultSlippageBps, "slippage tolerance in bps")
	return cmd
}
