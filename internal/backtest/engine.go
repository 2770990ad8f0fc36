// Package backtest replays a strategy over a calendar date range on the
// simulated market and compares it against a benchmark symbol.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/1cbyc/routing-sim/internal/market"
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/simulator"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/telemetry"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidDateRange = errors.New("invalid backtest date range")

const (
	DateLayout       = "2006-01-02"
	DefaultBenchmark = "BTC"

	// MaxSteps caps the number of simulated days regardless of range length.
	MaxSteps = 100
)

var DefaultInitialCapital = decimal.NewFromInt(1000000)

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

func WithInitialCapital(capital decimal.Decimal) Option {
	return func(e *Engine) {
		e.initialCapital = capital
	}
}

// WithBenchmark selects the benchmark symbol; empty disables the benchmark.
func WithBenchmark(symbol string) Option {
	return func(e *Engine) {
		e.benchmark = symbol
	}
}

func WithSkipRejected(skip bool) Option {
	return func(e *Engine) {
		e.skipRejected = skip
	}
}

func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

type Engine struct {
	start          time.Time
	end            time.Time
	strategy       strategies.Strategy
	provider       market.Provider
	logger         *zap.Logger
	metrics        *telemetry.Metrics
	initialCapital decimal.Decimal
	benchmark      string
	seed           int64
	skipRejected   bool
}

// NewEngine parses YYYY-MM-DD dates. The end date must fall after the
// start date.
func NewEngine(startDate, endDate string, strategy strategies.Strategy, provider market.Provider, opts ...Option) (*Engine, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("parse end date %q: %w", endDate, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: %s is not after %s", ErrInvalidDateRange, endDate, startDate)
	}

	e := &Engine{
		start:          start,
		end:            end,
		strategy:       strategy,
		provider:       provider,
		logger:         zap.NewNop(),
		initialCapital: DefaultInitialCapital,
		benchmark:      DefaultBenchmark,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Days is the whole number of days in the range.
func (e *Engine) Days() int {
	return int(e.end.Sub(e.start).Hours() / 24)
}

func (e *Engine) Run(ctx context.Context) (*models.BacktestResults, error) {
	days := e.Days()
	steps := min(days, MaxSteps)

	e.logger.Info("Running backtest",
		zap.String("strategy", e.strategy.Name()),
		zap.String("start", e.start.Format(DateLayout)),
		zap.String("end", e.end.Format(DateLayout)),
		zap.Int("steps", steps),
	)

	sim := simulator.New(e.initialCapital, e.strategy,
		simulator.WithSeed(e.seed),
		simulator.WithStartTime(e.start),
		simulator.WithSkipRejected(e.skipRejected),
		simulator.WithMetrics(e.metrics),
	)

	for day := 0; day < steps; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sim.Step(); err != nil {
			return nil, fmt.Errorf("backtest day %d: %w", day+1, err)
		}
	}

	results, err := sim.Finalize()
	if err != nil {
		return nil, err
	}

	benchmarkReturn, err := e.benchmarkReturn(days)
	if err != nil {
		return nil, err
	}

	backtest := &models.BacktestResults{
		RunID:               uuid.NewString(),
		Strategy:            e.strategy.Name(),
		Steps:               steps,
		StartDate:           e.start,
		EndDate:             e.end,
		InitialValue:        results.InitialValue,
		FinalValue:          results.FinalValue,
		TotalReturnPct:      results.TotalReturnPct,
		AnnualizedReturnPct: AnnualizedReturn(results.InitialValue, results.FinalValue, days),
		VolatilityPct:       results.VolatilityPct,
		SharpeRatio:         results.SharpeRatio,
		MaxDrawdownPct:      results.MaxDrawdownPct,
		BenchmarkSymbol:     e.benchmark,
		BenchmarkReturnPct:  benchmarkReturn,
		Trades:              []models.Trade{},
	}

	e.logger.Info("Backtest completed",
		zap.String("run_id", backtest.RunID),
		zap.Float64("total_return_pct", backtest.TotalReturnPct),
		zap.Float64("annualized_return_pct", backtest.AnnualizedReturnPct),
		zap.Float64("benchmark_return_pct", backtest.BenchmarkReturnPct),
	)
	return backtest, nil
}

func (e *Engine) benchmarkReturn(days int) (float64, error) {
	if e.benchmark == "" || e.provider == nil {
		return 0, nil
	}

	prices, err := e.provider.HistoricalPrices(e.benchmark, days+1)
	if err != nil {
		return 0, fmt.Errorf("benchmark %s: %w", e.benchmark, err)
	}
	if len(prices) < 2 {
		return 0, nil
	}
	return util.PercentageChange(prices[0], prices[len(prices)-1]), nil
}

// AnnualizedReturn compounds the total return over days/365 years, in
// percent. It is zero for a non-positive initial value or an empty range.
func AnnualizedReturn(initial, final decimal.Decimal, days int) float64 {
	if !initial.IsPositive() || days <= 0 {
		return 0
	}

	totalReturn := util.FloatFromDecimal(final.Sub(initial).Div(initial))
	years := float64(days) / 365.0
	annualized := (math.Pow(1+totalReturn, 1/years) - 1) * 100
	if math.IsNaN(annualized) || math.IsInf(annualized, 0) {
		return 0
	}
	return annualized
}
