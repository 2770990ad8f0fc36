package main

import (
	"fmt"
	"io"

	"github.com/1cbyc/routing-sim/internal/report"
	"github.com/1cbyc/routing-sim/internal/risk"
	"github.com/1cbyc/routing-sim/internal/simulator"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const progressEvery = 10

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one step simulation and print its risk summary",
		Long: `Run a strategy for a fixed number of simulated days from an initial
capital, then finalize the run into a results record.

Examples:
  routesim simulate --strategy conservative --steps 30
  routesim simulate --capital 250000 --seed 42 --output-csv history.csv`,
		Args: cobra.NoArgs,
		RunE: a.runSimulate,
	}

	flags := cmd.Flags()
	flags.Float64("capital", 1000000, "Initial capital")
	flags.Int("steps", 100, "Number of simulated days")
	flags.String("strategy", "balanced", "Strategy name")
	flags.Int64("seed", 0, "Random seed, 0 for time-seeded")
	flags.Bool("skip-rejected", true, "Skip decisions the portfolio cannot fund instead of aborting")
	a.bind(flags.Lookup("capital"), "simulation.capital")
	a.bind(flags.Lookup("steps"), "simulation.steps")
	a.bind(flags.Lookup("strategy"), "simulation.strategy")
	a.bind(flags.Lookup("seed"), "simulation.seed")
	a.bind(flags.Lookup("skip-rejected"), "simulation.skip_rejected")
	return cmd
}

func (a *app) runSimulate(cmd *cobra.Command, _ []string) error {
	cfg := a.cfg.Simulation
	strategy, err := strategies.FromName(cfg.Strategy)
	if err != nil {
		return err
	}

	a.logger.Info("Starting simulation",
		zap.String("strategy", strategy.Name()),
		zap.Float64("initial_capital", cfg.Capital),
		zap.Int("steps", cfg.Steps),
	)

	sim := simulator.New(util.DecimalFromFloat(cfg.Capital), strategy,
		simulator.WithLogger(a.logger),
		simulator.WithSeed(cfg.Seed),
		simulator.WithSkipRejected(cfg.SkipRejected),
		simulator.WithMetrics(a.metrics),
	)

	ctx := cmd.Context()
	for i := 0; i < cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			a.logger.Info("Simulation interrupted", zap.Int("step", sim.StepCount()))
			return err
		}
		if err := sim.Step(); err != nil {
			return err
		}
		if (i+1)%progressEvery == 0 {
			a.logger.Debug("Simulation progress",
				zap.Int("step", i+1),
				zap.Float64("portfolio_value", sim.PortfolioValue()),
			)
		}
	}

	results, err := sim.Finalize()
	if err != nil {
		return err
	}

	a.logger.Info("Simulation completed",
		zap.String("run_id", results.RunID),
		zap.String("final_value", results.FinalValue.String()),
		zap.Float64("total_return_pct", results.TotalReturnPct),
		zap.String("parametric_var_1d", risk.ParametricVaR(sim.Portfolio(), 1).StringFixed(2)),
		zap.String("parametric_cvar_1d", risk.ParametricCVaR(sim.Portfolio(), 1).StringFixed(2)),
	)

	if err := a.writeJSON(results); err != nil {
		return err
	}
	if path := a.cfg.Output.CSV; path != "" {
		err := report.WriteFile(path, func(w io.Writer) error {
			return report.WriteSnapshotsCSV(w, results.PortfolioHistory)
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		a.logger.Info("History written", zap.String("path", path))
	}
	return report.WriteSimulationSummary(cmd.OutOrStdout(), results)
}

// writeJSON exports v when an output path is configured.
func (a *app) writeJSON(v any) error {
	path := a.cfg.Output.JSON
	if path == "" {
		return nil
	}
	err := report.WriteFile(path, func(w io.Writer) error {
		return report.WriteJSON(w, v)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("Results written", zap.String("path", path))
	return nil
}
