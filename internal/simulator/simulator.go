// Package simulator steps a portfolio through simulated days under one
// routing strategy and summarizes the run.
package simulator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/1cbyc/routing-sim/internal/engine"
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/risk"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/telemetry"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrFinalized = errors.New("simulator already finalized")

// Confidence level for the VaR and CVaR reported by Finalize.
const DefaultConfidence = 0.95

type State int

const (
	StateRunning State = iota
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultStartTime anchors the simulated clock when no start time is given.
var DefaultStartTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type Option func(*Simulator)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeed seeds the price process. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = newRand(seed)
	}
}

// WithRand hands the simulator a generator it owns exclusively.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithSkipRejected makes a step skip decisions that exceed available cash
// instead of failing.
func WithSkipRejected(skip bool) Option {
	return func(s *Simulator) {
		s.skipRejected = skip
	}
}

func WithStartTime(start time.Time) Option {
	return func(s *Simulator) {
		s.start = start
	}
}

func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *Simulator) {
		s.metrics = metrics
	}
}

// Simulator is not safe for concurrent use.
type Simulator struct {
	portfolio    *models.Portfolio
	strategy     strategies.Strategy
	router       *engine.Router
	logger       *zap.Logger
	metrics      *telemetry.Metrics
	rng          *rand.Rand
	skipRejected bool
	start        time.Time

	state       State
	stepCount   int
	history     []models.PortfolioSnapshot
	marketState map[string]decimal.Decimal
}

func New(initialCapital decimal.Decimal, strategy strategies.Strategy, opts ...Option) *Simulator {
	s := &Simulator{
		strategy:    strategy,
		logger:      zap.NewNop(),
		start:       DefaultStartTime,
		state:       StateRunning,
		marketState: make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = newRand(0)
	}

	s.router = engine.NewRouter(s.logger)
	s.portfolio = models.NewPortfolio(initialCapital, s.start)
	return s
}

// NewFromFloat coerces a float capital; NaN and infinities become zero.
func NewFromFloat(initialCapital float64, strategy strategies.Strategy, opts ...Option) *Simulator {
	return New(util.DecimalFromFloat(initialCapital), strategy, opts...)
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Step advances one simulated day: evolve prices of held positions, ask
// the strategy for decisions against the new prices, execute them, then
// record a snapshot.
//
// A decision that exceeds available cash fails the step unless the
// simulator skips rejected decisions. A failed step still counts and
// leaves already executed decisions applied, but records no snapshot.
func (s *Simulator) Step() error {
	if s.state == StateFinalized {
		return ErrFinalized
	}

	s.stepCount++
	s.portfolio.Timestamp = s.start.AddDate(0, 0, s.stepCount)

	s.updateMarketPrices()

	decisions, err := s.strategy.GenerateDecisions(s.portfolio, s.marketState)
	if err != nil {
		return fmt.Errorf("step %d: generate decisions: %w", s.stepCount, err)
	}

	for _, decision := range decisions {
		if err := s.router.Execute(s.portfolio, decision, s.marketState); err != nil {
			if s.skipRejected && errors.Is(err, strategies.ErrInsufficientCash) {
				s.metrics.ObserveRejected(s.strategy.Name())
				s.logger.Warn("Routing decision skipped",
					zap.Int("step", s.stepCount),
					zap.String("target", decision.TargetAsset),
					zap.String("amount", decision.Amount.String()),
					zap.String("cash", s.portfolio.Cash.String()),
				)
				continue
			}
			return fmt.Errorf("step %d: %w", s.stepCount, err)
		}
	}

	s.portfolio.UpdateTotalValue()
	s.history = append(s.history, s.portfolio.Snapshot())
	s.metrics.ObserveStep(s.strategy.Name())

	s.logger.Debug("Step completed",
		zap.Int("step", s.stepCount),
		zap.Int("decisions", len(decisions)),
		zap.String("total_value", s.portfolio.TotalValue.String()),
		zap.String("cash", s.portfolio.Cash.String()),
	)
	return nil
}

// Finalize closes the run and computes its results. Returns are measured
// against the first recorded snapshot, not the initial capital. It can be
// called once.
func (s *Simulator) Finalize() (*models.SimulationResults, error) {
	if s.state == StateFinalized {
		return nil, ErrFinalized
	}
	s.state = StateFinalized
	s.portfolio.UpdateTotalValue()

	initialValue := decimal.Zero
	if len(s.history) > 0 {
		initialValue = s.history[0].TotalValue
	}
	finalValue := s.portfolio.TotalValue
	totalReturn := finalValue.Sub(initialValue)

	totalReturnPct := 0.0
	if initialValue.IsPositive() {
		totalReturnPct = util.FloatFromDecimal(totalReturn.Div(initialValue).Mul(decimal.NewFromInt(100)))
	}

	values := risk.SnapshotValues(s.history)
	returns := risk.Returns(values)
	history := make([]models.PortfolioSnapshot, len(s.history))
	copy(history, s.history)

	results := &models.SimulationResults{
		RunID:                uuid.NewString(),
		Strategy:             s.strategy.Name(),
		Steps:                s.stepCount,
		InitialValue:         initialValue,
		FinalValue:           finalValue,
		TotalReturn:          totalReturn,
		TotalReturnPct:       totalReturnPct,
		SharpeRatio:          risk.SharpeRatio(returns, 0),
		MaxDrawdownPct:       risk.MaxDrawdown(values),
		VolatilityPct:        risk.Volatility(returns),
		ValueAtRisk:          risk.ValueAtRisk(returns, DefaultConfidence, finalValue),
		ConditionalVaR:       risk.ConditionalVaR(returns, DefaultConfidence, finalValue),
		DiversificationScore: s.portfolio.DiversificationScore(),
		PortfolioYield:       s.portfolio.WeightedYield(),
		PortfolioRisk:        s.portfolio.WeightedVolatility(),
		PortfolioHistory:     history,
	}

	s.logger.Info("Simulation finalized",
		zap.String("run_id", results.RunID),
		zap.String("strategy", results.Strategy),
		zap.Int("steps", results.Steps),
		zap.String("final_value", finalValue.String()),
		zap.Float64("total_return_pct", totalReturnPct),
		zap.Float64("sharpe_ratio", results.SharpeRatio),
	)
	return results, nil
}

// PortfolioValue reports the total value as of the last bookkeeping.
func (s *Simulator) PortfolioValue() float64 {
	return util.FloatFromDecimal(s.portfolio.TotalValue)
}

func (s *Simulator) Portfolio() *models.Portfolio {
	return s.portfolio
}

func (s *Simulator) Strategy() strategies.Strategy {
	return s.strategy
}

func (s *Simulator) State() State {
	return s.state
}

func (s *Simulator) StepCount() int {
	return s.stepCount
}

func (s *Simulator) History() []models.PortfolioSnapshot {
	history := make([]models.PortfolioSnapshot, len(s.history))
	copy(history, s.history)
	return history
}

// MarketPrice returns the last evolved price of symbol.
func (s *Simulator) MarketPrice(symbol string) (decimal.Decimal, bool) {
	price, ok := s.marketState[symbol]
	return price, ok
}
