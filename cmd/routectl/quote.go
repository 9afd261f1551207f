package main

import (
	"github.com/spf13/cobra"
)

func quoteCmd() *cobra.Command {
	var f routeFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the winning route selection as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, _, err := f.route(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, sel)
		},
	}
	f.register(cmd)
	return cmd
}
