package main

import (
	"github.com/1cbyc/routing-sim/internal/backtest"
	"github.com/1cbyc/routing-sim/internal/market"
	"github.com/1cbyc/routing-sim/internal/report"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/spf13/cobra"
)

func newBacktestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a strategy over a date range against a benchmark",
		Long: `Simulate one step per day between two dates and compare the outcome
with the buy-and-hold return of a benchmark asset.

Examples:
  routesim backtest --start 2024-01-01 --end 2024-03-31
  routesim backtest --strategy yield --benchmark ETH`,
		Args: cobra.NoArgs,
		RunE: a.runBacktest,
	}

	flags := cmd.Flags()
	flags.String("start", "2024-01-01", "Start date (YYYY-MM-DD)")
	flags.String("end", "2024-12-31", "End date (YYYY-MM-DD)")
	flags.String("strategy", "balanced", "Strategy name")
	flags.String("benchmark", "BTC", "Benchmark symbol, empty to disable")
	flags.Float64("capital", 1000000, "Initial capital")
	flags.Int64("seed", 0, "Random seed, 0 for time-seeded")
	a.bind(flags.Lookup("start"), "backtest.start_date")
	a.bind(flags.Lookup("end"), "backtest.end_date")
	a.bind(flags.Lookup("strategy"), "backtest.strategy")
	a.bind(flags.Lookup("benchmark"), "backtest.benchmark")
	a.bind(flags.Lookup("capital"), "backtest.capital")
	a.bind(flags.Lookup("seed"), "backtest.seed")
	return cmd
}

func (a *app) runBacktest(cmd *cobra.Command, _ []string) error {
	cfg := a.cfg.Backtest
	strategy, err := strategies.FromName(cfg.Strategy)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(cfg.StartDate, cfg.EndDate, strategy, market.NewMockProvider(cfg.Seed),
		backtest.WithLogger(a.logger),
		backtest.WithSeed(cfg.Seed),
		backtest.WithInitialCapital(util.DecimalFromFloat(cfg.Capital)),
		backtest.WithBenchmark(cfg.Benchmark),
		backtest.WithSkipRejected(a.cfg.Simulation.SkipRejected),
		backtest.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}

	results, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := a.writeJSON(results); err != nil {
		return err
	}
	return report.WriteBacktestSummary(cmd.OutOrStdout(), results)
}
