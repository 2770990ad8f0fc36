// Package montecarlo stress tests a routing strategy by running many
// independent simulations and summarizing the distribution of final
// portfolio values.
package montecarlo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/risk"
	"github.com/1cbyc/routing-sim/internal/simulator"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/telemetry"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	DefaultSteps     = 100
	DefaultBatchSize = 100

	// progress is logged every progressEvery batches
	progressEvery = 10
)

var DefaultInitialCapital = decimal.NewFromInt(1000000)

// PercentileRanks are the ranks reported on every result.
var PercentileRanks = []int{5, 25, 50, 75, 95}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSeed fixes the master generator that derives every trial seed.
// Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithWorkers runs up to n trials of a batch concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.steps = n
		}
	}
}

func WithInitialCapital(capital decimal.Decimal) Option {
	return func(e *Engine) {
		e.initialCapital = capital
	}
}

func WithStrategy(kind strategies.Kind) Option {
	return func(e *Engine) {
		e.strategy = kind
	}
}

// WithSkipRejected controls whether trials skip over-allocating decisions.
// When disabled, such a decision fails its trial, which then contributes a
// final value of zero.
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
	iterations     int
	scenarios      int
	steps          int
	batchSize      int
	workers        int
	seed           int64
	initialCapital decimal.Decimal
	strategy       strategies.Kind
	skipRejected   bool
	logger         *zap.Logger
	metrics        *telemetry.Metrics
}

// NewEngine defaults to the balanced strategy, 100 steps per trial from
// 1,000,000, sequential execution and skipping rejected decisions.
// scenarios is recorded for reporting only.
func NewEngine(iterations, scenarios int, opts ...Option) *Engine {
	e := &Engine{
		iterations:     iterations,
		scenarios:      scenarios,
		steps:          DefaultSteps,
		batchSize:      DefaultBatchSize,
		workers:        1,
		initialCapital: DefaultInitialCapital,
		strategy:       strategies.KindBalanced,
		skipRejected:   true,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Iterations() int {
	return e.iterations
}

func (e *Engine) Scenarios() int {
	return e.scenarios
}

type trialResult struct {
	finalValue float64
	failed     bool
}

// RunStressTest runs every trial, batch by batch, and summarizes the final
// values at the given confidence level. VaR and CVaR are read off the
// distribution of final values, not returns. It stops between batches when
// ctx is cancelled.
func (e *Engine) RunStressTest(ctx context.Context, confidence float64) (*models.MonteCarloResults, error) {
	if _, err := strategies.New(e.strategy); err != nil {
		return nil, err
	}

	iterations := max(e.iterations, 0)
	batches := (iterations + e.batchSize - 1) / e.batchSize

	e.logger.Info("Starting Monte Carlo simulation",
		zap.Int("iterations", iterations),
		zap.Int("scenarios", e.scenarios),
		zap.Int("batches", batches),
		zap.Int("workers", e.workers),
		zap.String("strategy", e.strategy.String()),
	)

	seeds := e.trialSeeds(iterations)
	results := make([]trialResult, iterations)

	for batch := 0; batch < batches; batch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("monte carlo batch %d/%d: %w", batch+1, batches, err)
		}

		start := batch * e.batchSize
		end := min(start+e.batchSize, iterations)
		e.runBatch(seeds[start:end], results[start:end])

		if (batch+1)%progressEvery == 0 {
			e.logger.Info("Monte Carlo progress",
				zap.Int("completed_batches", batch+1),
				zap.Int("batches", batches),
			)
		}
	}

	finalValues := make([]float64, iterations)
	failed := 0
	for i, r := range results {
		finalValues[i] = r.finalValue
		if r.failed {
			failed++
		}
	}

	mc := e.summarize(finalValues, confidence)
	mc.FailedTrials = failed

	e.logger.Info("Monte Carlo simulation completed",
		zap.String("run_id", mc.RunID),
		zap.String("expected_value", mc.ExpectedValue.String()),
		zap.String("value_at_risk", mc.ValueAtRisk.String()),
		zap.Int("failed_trials", failed),
	)
	return mc, nil
}

// trialSeeds draws every trial's seed up front so results do not depend on
// how trials are scheduled across workers.
func (e *Engine) trialSeeds(n int) []int64 {
	seed := e.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	master := rand.New(rand.NewSource(seed))

	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = master.Int63()
	}
	return seeds
}

func (e *Engine) runBatch(seeds []int64, results []trialResult) {
	if e.workers <= 1 {
		for i, seed := range seeds {
			results[i] = e.runTrial(seed)
		}
		return
	}

	p := pool.New().WithMaxGoroutines(e.workers)
	for i, seed := range seeds {
		i, seed := i, seed
		p.Go(func() {
			results[i] = e.runTrial(seed)
		})
	}
	p.Wait()
}

func (e *Engine) runTrial(seed int64) trialResult {
	started := time.Now()
	value, err := e.simulate(seed)
	if err != nil {
		e.metrics.ObserveTrial(telemetry.OutcomeFailed, time.Since(started))
		e.logger.Debug("Monte Carlo trial failed", zap.Int64("seed", seed), zap.Error(err))
		return trialResult{failed: true}
	}
	e.metrics.ObserveTrial(telemetry.OutcomeSuccess, time.Since(started))
	return trialResult{finalValue: value}
}

func (e *Engine) simulate(seed int64) (float64, error) {
	strategy, err := strategies.New(e.strategy)
	if err != nil {
		return 0, err
	}

	sim := simulator.New(e.initialCapital, strategy,
		simulator.WithRand(rand.New(rand.NewSource(seed))),
		simulator.WithSkipRejected(e.skipRejected),
		simulator.WithMetrics(e.metrics),
	)
	for i := 0; i < e.steps; i++ {
		if err := sim.Step(); err != nil {
			return 0, err
		}
	}

	results, err := sim.Finalize()
	if err != nil {
		return 0, err
	}
	return util.FloatFromDecimal(results.FinalValue), nil
}

func (e *Engine) summarize(finalValues []float64, confidence float64) *models.MonteCarloResults {
	mean := 0.0
	if len(finalValues) > 0 {
		if m, err := stats.Mean(finalValues); err == nil {
			mean = m
		}
	}

	sorted := append([]float64(nil), finalValues...)
	sort.Float64s(sorted)

	percentiles := make(map[int]decimal.Decimal, len(PercentileRanks))
	for _, rank := range PercentileRanks {
		percentiles[rank] = util.DecimalFromFloat(risk.Percentile(sorted, float64(rank)/100))
	}

	return &models.MonteCarloResults{
		RunID:           uuid.NewString(),
		Iterations:      len(finalValues),
		ExpectedValue:   util.DecimalFromFloat(mean),
		ValueAtRisk:     util.DecimalFromFloat(risk.TailValue(finalValues, confidence)),
		ConditionalVaR:  util.DecimalFromFloat(risk.TailMean(finalValues, confidence)),
		MaxDrawdownPct:  e.drawdownProxy(finalValues, mean),
		ConfidenceLevel: confidence,
		Distribution:    finalValues,
		Percentiles:     percentiles,
	}
}

// drawdownProxy is the shortfall of the mean final value below the initial
// capital, in percent. No per-trial drawdown is tracked.
func (e *Engine) drawdownProxy(finalValues []float64, mean float64) float64 {
	initial := util.FloatFromDecimal(e.initialCapital)
	if len(finalValues) == 0 || initial <= 0 {
		return 0
	}
	return math.Max(0, (initial-mean)/initial*100)
}
