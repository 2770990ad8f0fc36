package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/spf13/cobra"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the built-in strategies and their risk limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tREBALANCE DAYS\tMIN YIELD")
			for _, kind := range strategies.Kinds() {
				strategy, err := strategies.New(kind)
				if err != nil {
					return err
				}
				config := strategy.GetConfig()
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f%%\n",
					kind, config.Name, config.RebalanceFrequencyDays, config.MinYieldThreshold*100)
			}
			return tw.Flush()
		},
	}
}
