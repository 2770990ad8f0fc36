// Package optimizer ranks routing strategies by risk-adjusted performance.
package optimizer

import (
	"context"
	"math/rand"
	"time"

	"github.com/1cbyc/routing-sim/internal/simulator"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultRounds = 5
	fitnessSteps  = 100
)

var fitnessCapital = decimal.NewFromInt(1000000)

// Candidate is one evaluated strategy.
type Candidate struct {
	Strategy strategies.Strategy
	Fitness  float64
}

type Option func(*Optimizer)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithSeed(seed int64) Option {
	return func(o *Optimizer) {
		o.seed = seed
	}
}

// WithRounds sets how many independent runs each candidate is scored on.
func WithRounds(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.rounds = n
		}
	}
}

// WithSkipRejected lets fitness runs skip over-allocating decisions
// instead of scoring zero.
func WithSkipRejected(skip bool) Option {
	return func(o *Optimizer) {
		o.skipRejected = skip
	}
}

type Optimizer struct {
	logger       *zap.Logger
	rng          *rand.Rand
	seed         int64
	rounds       int
	skipRejected bool
}

func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		logger: zap.NewNop(),
		rounds: DefaultRounds,
	}
	for _, opt := range opts {
		opt(o)
	}

	seed := o.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	o.rng = rand.New(rand.NewSource(seed))
	return o
}

// Fitness runs the strategy for 100 steps from 1,000,000 and returns the
// Sharpe ratio floored at zero. A failing step scores zero.
func (o *Optimizer) Fitness(strategy strategies.Strategy) float64 {
	sim := simulator.New(fitnessCapital, strategy,
		simulator.WithRand(rand.New(rand.NewSource(o.rng.Int63()))),
		simulator.WithSkipRejected(o.skipRejected),
	)
	for i := 0; i < fitnessSteps; i++ {
		if err := sim.Step(); err != nil {
			o.logger.Debug("Fitness run failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err),
			)
			return 0
		}
	}

	results, err := sim.Finalize()
	if err != nil {
		return 0
	}
	return max(results.SharpeRatio, 0)
}

// Evaluate scores every candidate by its mean fitness over the configured
// rounds.
func (o *Optimizer) Evaluate(ctx context.Context, candidates []strategies.Strategy) ([]Candidate, error) {
	scored := make([]Candidate, 0, len(candidates))
	for _, strategy := range candidates {
		scores := make([]float64, 0, o.rounds)
		for round := 0; round < o.rounds; round++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scores = append(scores, o.Fitness(strategy))
		}

		mean, err := stats.Mean(scores)
		if err != nil {
			mean = 0
		}
		scored = append(scored, Candidate{Strategy: strategy, Fitness: mean})

		o.logger.Info("Strategy evaluated",
			zap.String("strategy", strategy.Name()),
			zap.Float64("fitness", mean),
		)
	}
	return scored, nil
}

// Optimize evaluates the initial strategy against every built-in variant
// and returns the fittest. The initial strategy wins ties.
func (o *Optimizer) Optimize(ctx context.Context, initial strategies.Strategy) (Candidate, error) {
	candidates := []strategies.Strategy{initial}
	for _, kind := range strategies.Kinds() {
		if kind == initial.Kind() {
			continue
		}
		strategy, err := strategies.New(kind)
		if err != nil {
			return Candidate{}, err
		}
		candidates = append(candidates, strategy)
	}

	scored, err := o.Evaluate(ctx, candidates)
	if err != nil {
		return Candidate{}, err
	}

	best := fittest(scored)
	o.logger.Info("Optimization completed",
		zap.String("initial", initial.Name()),
		zap.String("best", best.Strategy.Name()),
		zap.Float64("fitness", best.Fitness),
	)
	return best, nil
}

// fittest returns the first candidate with the highest fitness.
func fittest(scored []Candidate) Candidate {
	best := scored[0]
	for _, candidate := range scored[1:] {
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}
