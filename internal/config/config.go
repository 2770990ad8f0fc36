// Package config loads run settings from defaults, an optional YAML file,
// ROUTESIM_ environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

const EnvPrefix = "ROUTESIM"

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	MonteCarlo MonteCarloConfig `mapstructure:"monte_carlo"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Output     OutputConfig     `mapstructure:"output"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SimulationConfig struct {
	Capital      float64 `mapstructure:"capital"`
	Steps        int     `mapstructure:"steps"`
	Strategy     string  `mapstructure:"strategy"`
	Seed         int64   `mapstructure:"seed"`
	SkipRejected bool    `mapstructure:"skip_rejected"`
}

type MonteCarloConfig struct {
	Iterations int     `mapstructure:"iterations"`
	Scenarios  int     `mapstructure:"scenarios"`
	Confidence float64 `mapstructure:"confidence"`
	Steps      int     `mapstructure:"steps"`
	Capital    float64 `mapstructure:"capital"`
	Strategy   string  `mapstructure:"strategy"`
	Workers    int     `mapstructure:"workers"`
	Seed       int64   `mapstructure:"seed"`
	BatchSize  int     `mapstructure:"batch_size"`
}

type BacktestConfig struct {
	StartDate string  `mapstructure:"start_date"`
	EndDate   string  `mapstructure:"end_date"`
	Strategy  string  `mapstructure:"strategy"`
	Benchmark string  `mapstructure:"benchmark"`
	Capital   float64 `mapstructure:"capital"`
	Seed      int64   `mapstructure:"seed"`
}

type OptimizerConfig struct {
	Strategy string `mapstructure:"strategy"`
	Rounds   int    `mapstructure:"rounds"`
	Seed     int64  `mapstructure:"seed"`
}

// OutputConfig paths are optional; empty skips the export.
type OutputConfig struct {
	JSON string `mapstructure:"json"`
	CSV  string `mapstructure:"csv"`
}

// MetricsConfig.Addr enables the /metrics endpoint when set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]any{
	"log.level": "info",

	"simulation.capital":       1000000.0,
	"simulation.steps":         100,
	"simulation.strategy":      "balanced",
	"simulation.seed":          0,
	"simulation.skip_rejected": true,

	"monte_carlo.iterations": 1000,
	"monte_carlo.scenarios":  10,
	"monte_carlo.confidence": 0.95,
	"monte_carlo.steps":      100,
	"monte_carlo.capital":    1000000.0,
	"monte_carlo.strategy":   "balanced",
	"monte_carlo.workers":    1,
	"monte_carlo.seed":       0,
	"monte_carlo.batch_size": 100,

	"backtest.start_date": "2024-01-01",
	"backtest.end_date":   "2024-12-31",
	"backtest.strategy":   "balanced",
	"backtest.benchmark":  "BTC",
	"backtest.capital":    1000000.0,
	"backtest.seed":       0,

	"optimizer.strategy": "balanced",
	"optimizer.rounds":   5,
	"optimizer.seed":     0,

	"output.json": "",
	"output.csv":  "",

	"metrics.addr": "",
}

// SetDefaults registers every key, which also lets AutomaticEnv resolve
// them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads path when non-empty, applies the environment and returns the
// validated result. Flags must be bound to v before calling Load.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}
	checkStrategy := func(key, name string) {
		if _, err := strategies.ParseKind(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err))
		}
	}

	if !logLevels[strings.ToLower(c.Log.Level)] {
		invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	if c.Simulation.Capital <= 0 {
		invalid("simulation.capital must be positive, got %v", c.Simulation.Capital)
	}
	if c.Simulation.Steps <= 0 {
		invalid("simulation.steps must be positive, got %d", c.Simulation.Steps)
	}
	checkStrategy("simulation.strategy", c.Simulation.Strategy)

	if c.MonteCarlo.Iterations <= 0 {
		invalid("monte_carlo.iterations must be positive, got %d", c.MonteCarlo.Iterations)
	}
	if c.MonteCarlo.Confidence <= 0 || c.MonteCarlo.Confidence >= 1 {
		invalid("monte_carlo.confidence must be in (0, 1), got %v", c.MonteCarlo.Confidence)
	}
	if c.MonteCarlo.Steps <= 0 {
		invalid("monte_carlo.steps must be positive, got %d", c.MonteCarlo.Steps)
	}
	if c.MonteCarlo.Capital <= 0 {
		invalid("monte_carlo.capital must be positive, got %v", c.MonteCarlo.Capital)
	}
	if c.MonteCarlo.Workers < 1 {
		invalid("monte_carlo.workers must be at least 1, got %d", c.MonteCarlo.Workers)
	}
	if c.MonteCarlo.BatchSize < 1 {
		invalid("monte_carlo.batch_size must be at least 1, got %d", c.MonteCarlo.BatchSize)
	}
	checkStrategy("monte_carlo.strategy", c.MonteCarlo.Strategy)

	if c.Backtest.Capital <= 0 {
		invalid("backtest.capital must be positive, got %v", c.Backtest.Capital)
	}
	checkStrategy("backtest.strategy", c.Backtest.Strategy)

	if c.Optimizer.Rounds <= 0 {
		invalid("optimizer.rounds must be positive, got %d", c.Optimizer.Rounds)
	}
	checkStrategy("optimizer.strategy", c.Optimizer.Strategy)

	return errors.Join(errs...)
}
