package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/1cbyc/routing-sim/internal/optimizer"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Rank the built-in strategies by risk-adjusted return",
		Long: `Score a starting strategy and every other built-in strategy by their
mean Sharpe ratio over several seeded runs, and report the fittest.`,
		Args: cobra.NoArgs,
		RunE: a.runOptimize,
	}

	flags := cmd.Flags()
	flags.String("strategy", "balanced", "Starting strategy, which wins ties")
	flags.Int("rounds", 5, "Runs per candidate")
	flags.Int64("seed", 0, "Random seed, 0 for time-seeded")
	a.bind(flags.Lookup("strategy"), "optimizer.strategy")
	a.bind(flags.Lookup("rounds"), "optimizer.rounds")
	a.bind(flags.Lookup("seed"), "optimizer.seed")
	return cmd
}

func (a *app) runOptimize(cmd *cobra.Command, _ []string) error {
	cfg := a.cfg.Optimizer
	initial, err := strategies.FromName(cfg.Strategy)
	if err != nil {
		return err
	}

	opt := optimizer.New(
		optimizer.WithLogger(a.logger),
		optimizer.WithSeed(cfg.Seed),
		optimizer.WithRounds(cfg.Rounds),
		optimizer.WithSkipRejected(a.cfg.Simulation.SkipRejected),
	)

	best, err := opt.Optimize(cmd.Context(), initial)
	if err != nil {
		return err
	}

	if err := a.writeJSON(map[string]any{
		"initial": initial.Name(),
		"best":    best.Strategy.Name(),
		"fitness": best.Fitness,
	}); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Initial\t%s\n", initial.Name())
	fmt.Fprintf(tw, "Best\t%s\n", best.Strategy.Name())
	fmt.Fprintf(tw, "Fitness\t%.4f\n", best.Fitness)
	return tw.Flush()
}
