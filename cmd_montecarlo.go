package main

import (
	"github.com/1cbyc/routing-sim/internal/montecarlo"
	"github.com/1cbyc/routing-sim/internal/report"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMonteCarloCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monte-carlo",
		Aliases: []string{"mc"},
		Short:   "Stress test a strategy over many independent trials",
		Long: `Run independent simulations of one strategy and summarize the
distribution of final portfolio values.

Examples:
  routesim monte-carlo --iterations 5000 --workers 8
  routesim mc --strategy aggressive --confidence 0.99 --output-json mc.json`,
		Args: cobra.NoArgs,
		RunE: a.runMonteCarlo,
	}

	flags := cmd.Flags()
	flags.Int("iterations", 1000, "Number of trials")
	flags.Int("scenarios", 10, "Scenario count, recorded with the run")
	flags.Float64("confidence", 0.95, "Confidence level for VaR and CVaR")
	flags.Int("steps", 100, "Steps per trial")
	flags.Float64("capital", 1000000, "Initial capital per trial")
	flags.String("strategy", "balanced", "Strategy name")
	flags.Int("workers", 1, "Concurrent trial workers")
	flags.Int64("seed", 0, "Master random seed, 0 for time-seeded")
	flags.Int("batch-size", 100, "Trials per cancellation check")
	a.bind(flags.Lookup("iterations"), "monte_carlo.iterations")
	a.bind(flags.Lookup("scenarios"), "monte_carlo.scenarios")
	a.bind(flags.Lookup("confidence"), "monte_carlo.confidence")
	a.bind(flags.Lookup("steps"), "monte_carlo.steps")
	a.bind(flags.Lookup("capital"), "monte_carlo.capital")
	a.bind(flags.Lookup("strategy"), "monte_carlo.strategy")
	a.bind(flags.Lookup("workers"), "monte_carlo.workers")
	a.bind(flags.Lookup("seed"), "monte_carlo.seed")
	a.bind(flags.Lookup("batch-size"), "monte_carlo.batch_size")
	return cmd
}

func (a *app) runMonteCarlo(cmd *cobra.Command, _ []string) error {
	cfg := a.cfg.MonteCarlo
	kind, err := strategies.ParseKind(cfg.Strategy)
	if err != nil {
		return err
	}

	engine := montecarlo.NewEngine(cfg.Iterations, cfg.Scenarios,
		montecarlo.WithLogger(a.logger),
		montecarlo.WithSeed(cfg.Seed),
		montecarlo.WithWorkers(cfg.Workers),
		montecarlo.WithBatchSize(cfg.BatchSize),
		montecarlo.WithSteps(cfg.Steps),
		montecarlo.WithInitialCapital(util.DecimalFromFloat(cfg.Capital)),
		montecarlo.WithStrategy(kind),
		montecarlo.WithMetrics(a.metrics),
	)

	results, err := engine.RunStressTest(cmd.Context(), cfg.Confidence)
	if err != nil {
		return err
	}
	if a.cfg.Output.CSV != "" {
		a.logger.Warn("CSV output applies to simulate only", zap.String("path", a.cfg.Output.CSV))
	}

	if err := a.writeJSON(results); err != nil {
		return err
	}
	return report.WriteMonteCarloSummary(cmd.OutOrStdout(), results)
}
