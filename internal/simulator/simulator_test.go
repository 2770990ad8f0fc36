package simulator

import (
	"math"
	"testing"

	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/1cbyc/routing-sim/internal/telemetry"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func createTestSimulator(capital int64, strategy strategies.Strategy, opts ...Option) *Simulator {
	opts = append([]Option{WithSeed(42)}, opts...)
	return New(decimal.NewFromInt(capital), strategy, opts...)
}

func TestSimulator_ConservativeFirstStep(t *testing.T) {
	sim := createTestSimulator(1000000, strategies.NewConservativeStrategy())

	require.NoError(t, sim.Step())

	portfolio := sim.Portfolio()
	require.Contains(t, portfolio.Positions, "USDC")
	position := portfolio.Positions["USDC"]
	assert.True(t, position.CurrentValue.Equal(decimal.NewFromInt(300000)))
	assert.True(t, position.Quantity.Equal(decimal.NewFromInt(300000)))
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(1000000-300000-300)))
	assert.True(t, portfolio.TotalValue.Equal(decimal.NewFromInt(999700)))

	history := sim.History()
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].PositionsCount)
	assert.Equal(t, DefaultStartTime.AddDate(0, 0, 1), history[0].Timestamp)
}

func TestSimulator_ConservativeBelowFloor(t *testing.T) {
	sim := createTestSimulator(3000, strategies.NewConservativeStrategy())

	require.NoError(t, sim.Step())

	assert.Empty(t, sim.Portfolio().Positions)
	assert.True(t, sim.Portfolio().Cash.Equal(decimal.NewFromInt(3000)))
	assert.Len(t, sim.History(), 1)
}

func TestSimulator_InsufficientCashAbortsStep(t *testing.T) {
	sim := createTestSimulator(1000000, strategies.NewBalancedStrategy())

	err := sim.Step()

	require.ErrorIs(t, err, strategies.ErrInsufficientCash)
	assert.Equal(t, 1, sim.StepCount())
	assert.Empty(t, sim.History())
	// four tranches of 200000 plus 400 fees each went through before the fifth failed
	assert.Len(t, sim.Portfolio().Positions, 4)
	assert.True(t, sim.Portfolio().Cash.Equal(decimal.NewFromInt(198400)))
}

func TestSimulator_SkipRejected(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(reg)
	require.NoError(t, err)

	sim := createTestSimulator(1000000, strategies.NewBalancedStrategy(),
		WithSkipRejected(true),
		WithMetrics(metrics),
	)

	require.NoError(t, sim.Step())

	assert.Len(t, sim.Portfolio().Positions, 4)
	assert.True(t, sim.Portfolio().Cash.Equal(decimal.NewFromInt(198400)))
	assert.Len(t, sim.History(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RejectedDecisions.WithLabelValues("balanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Steps.WithLabelValues("balanced")))
}

func TestSimulator_CashInvariantAcrossSteps(t *testing.T) {
	for _, kind := range strategies.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			strategy, err := strategies.New(kind)
			require.NoError(t, err)
			sim := createTestSimulator(1000000, strategy, WithSkipRejected(true))

			for i := 0; i < 25; i++ {
				require.NoError(t, sim.Step())
				portfolio := sim.Portfolio()
				assert.True(t, portfolio.TotalValue.Equal(portfolio.Cash.Add(portfolio.PositionsValue())))
			}

			for _, snapshot := range sim.History() {
				assert.True(t, snapshot.TotalValue.Equal(snapshot.Cash.Add(snapshot.PositionsValue)))
			}
		})
	}
}

func TestSimulator_PricesEvolveForHeldPositions(t *testing.T) {
	sim := createTestSimulator(1000000, strategies.NewConservativeStrategy())

	require.NoError(t, sim.Step())
	_, priced := sim.MarketPrice("USDC")
	assert.False(t, priced)

	require.NoError(t, sim.Step())
	price, priced := sim.MarketPrice("USDC")
	require.True(t, priced)
	assert.True(t, price.Equal(sim.Portfolio().Positions["USDC"].Asset.CurrentPrice))
	assert.InDelta(t, 1.0, util.FloatFromDecimal(price), 0.01)
}

func TestSimulator_SeededRunsAreReproducible(t *testing.T) {
	run := func() []interface{} {
		sim := createTestSimulator(1000000, strategies.NewAggressiveStrategy())
		for i := 0; i < 30; i++ {
			require.NoError(t, sim.Step())
		}
		return []interface{}{sim.History(), sim.Portfolio().Cash}
	}

	assert.Equal(t, "", cmp.Diff(run(), run(), decimalComparer))
}

func TestSimulator_Finalize(t *testing.T) {
	sim := createTestSimulator(1000000, strategies.NewConservativeStrategy())
	for i := 0; i < 10; i++ {
		require.NoError(t, sim.Step())
	}
	history := sim.History()

	results, err := sim.Finalize()

	require.NoError(t, err)
	assert.Equal(t, StateFinalized, sim.State())
	assert.NotEmpty(t, results.RunID)
	assert.Equal(t, "conservative", results.Strategy)
	assert.Equal(t, 10, results.Steps)
	assert.True(t, results.InitialValue.Equal(history[0].TotalValue))
	assert.True(t, results.FinalValue.Equal(sim.Portfolio().TotalValue))
	assert.True(t, results.TotalReturn.Equal(results.FinalValue.Sub(results.InitialValue)))
	assert.Len(t, results.PortfolioHistory, 10)
	assert.GreaterOrEqual(t, results.MaxDrawdownPct, 0.0)
	assert.GreaterOrEqual(t, results.VolatilityPct, 0.0)
	assert.False(t, math.IsNaN(results.SharpeRatio))
	assert.False(t, results.ValueAtRisk.IsNegative())
	assert.False(t, results.ConditionalVaR.IsNegative())
	assert.True(t, results.PortfolioYield.IsPositive())
}

func TestSimulator_FinalizeWithoutSteps(t *testing.T) {
	sim := createTestSimulator(5000, strategies.NewConservativeStrategy())

	results, err := sim.Finalize()

	require.NoError(t, err)
	assert.True(t, results.InitialValue.IsZero())
	assert.True(t, results.FinalValue.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, 0.0, results.TotalReturnPct)
	assert.Equal(t, 0.0, results.SharpeRatio)
	assert.True(t, results.ValueAtRisk.IsZero())
	assert.Empty(t, results.PortfolioHistory)
}

func TestSimulator_FinalizeIsConsuming(t *testing.T) {
	sim := createTestSimulator(1000000, strategies.NewConservativeStrategy())
	require.NoError(t, sim.Step())

	_, err := sim.Finalize()
	require.NoError(t, err)

	_, err = sim.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, sim.Step(), ErrFinalized)
	assert.Equal(t, 1, sim.StepCount())
}

func TestSimulator_NewFromFloat(t *testing.T) {
	sim := NewFromFloat(math.NaN(), strategies.NewConservativeStrategy(), WithSeed(1))

	assert.True(t, sim.Portfolio().Cash.IsZero())
	assert.Equal(t, 0.0, sim.PortfolioValue())
}

func TestEvolvePrice(t *testing.T) {
	price := decimal.NewFromInt(100)
	volatility := decimal.NewFromFloat(0.02)

	tests := []struct {
		name     string
		drift    decimal.Decimal
		shock    float64
		expected float64
	}{
		{name: "No Drift No Shock", drift: decimal.Zero, shock: 0, expected: 100},
		{name: "Drift Only", drift: decimal.NewFromFloat(0.365), shock: 0, expected: 100.1},
		{name: "Max Shock", drift: decimal.Zero, shock: 0.5, expected: 100 * (1 + 0.5*math.Sqrt(1.0/365)*0.02)},
		{name: "Min Shock", drift: decimal.Zero, shock: -0.5, expected: 100 * (1 - 0.5*math.Sqrt(1.0/365)*0.02)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evolvePrice(price, tt.drift, volatility, tt.shock)
			assert.InDelta(t, tt.expected, util.FloatFromDecimal(got), 1e-9)
		})
	}
}

func TestEvolvePrice_FloorsAtMinimum(t *testing.T) {
	got := evolvePrice(decimal.NewFromInt(1), decimal.NewFromInt(-400), decimal.Zero, 0)

	assert.True(t, got.Equal(minPrice))
}
