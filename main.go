package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1cbyc/routing-sim/internal/config"
	"github.com/1cbyc/routing-sim/internal/logger"
	"github.com/1cbyc/routing-sim/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root pre-run has
// loaded the configuration.
type app struct {
	v          *viper.Viper
	configPath string

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "routesim",
		Short: "Capital routing portfolio simulator",
		Long: `routesim routes capital across yield-bearing crypto assets with a choice
of strategies, then measures the outcome with step simulations, Monte Carlo
stress tests and backtests.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flags.String("output-json", "", "Write the results record to this JSON file")
	flags.String("output-csv", "", "Write the portfolio history to this CSV file")
	a.bind(flags.Lookup("log-level"), "log.level")
	a.bind(flags.Lookup("metrics-addr"), "metrics.addr")
	a.bind(flags.Lookup("output-json"), "output.json")
	a.bind(flags.Lookup("output-csv"), "output.csv")

	cmd.AddCommand(
		newSimulateCmd(a),
		newMonteCarloCmd(a),
		newBacktestCmd(a),
		newOptimizeCmd(a),
		newStrategiesCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		telemetry.Serve(cmd.Context(), cfg.Metrics.Addr, registry, log)
	}

	a.cfg = cfg
	a.logger = log
	a.registry = registry
	a.metrics = metrics
	return nil
}

// bind panics on a nil flag, which only a typo in the flag name can cause.
func (a *app) bind(flag *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
