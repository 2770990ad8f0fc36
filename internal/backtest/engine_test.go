package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/1cbyc/routing-sim/internal/market"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a fixed two-point history for every symbol.
type stubProvider struct {
	first, last decimal.Decimal
	requested   int
}

func (p *stubProvider) CurrentPrice(string) (decimal.Decimal, error) { return p.last, nil }
func (p *stubProvider) Volatility(string) (decimal.Decimal, error) { return decimal.Zero, nil }
func (p *stubProvider) YieldRate(string) (decimal.Decimal, error) { return decimal.Zero, nil }

func (p *stubProvider) HistoricalPrices(_ string, days int) ([]decimal.Decimal, error) {
	p.requested = days
	return []decimal.Decimal{p.first, p.last}, nil
}

func createTestEngine(t *testing.T, start, end string, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithSeed(11)}, opts...)
	engine, err := NewEngine(start, end, strategies.NewConservativeStrategy(), market.NewMockProvider(11), opts...)
	require.NoError(t, err)
	return engine
}

func TestNewEngine_DateValidation(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantRange  bool
	}{
		{name: "Malformed Start", start: "2024/01/01", end: "2024-12-31"},
		{name: "Malformed End", start: "2024-01-01", end: "tomorrow"},
		{name: "End Before Start", start: "2024-06-01", end: "2024-01-01", wantRange: true},
		{name: "Same Day", start: "2024-06-01", end: "2024-06-01", wantRange: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.start, tt.end, strategies.NewConservativeStrategy(), nil)
			require.Error(t, err)
			if tt.wantRange {
				assert.ErrorIs(t, err, ErrInvalidDateRange)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidDateRange)
			}
		})
	}
}

func TestEngine_RunCapsSteps(t *testing.T) {
	engine := createTestEngine(t, "2024-01-01", "2024-12-31")

	results, err := engine.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 365, engine.Days())
	assert.Equal(t, MaxSteps, results.Steps)
	assert.Equal(t, "conservative", results.Strategy)
	assert.NotEmpty(t, results.RunID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), results.StartDate)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), results.EndDate)
	assert.True(t, results.InitialValue.IsPositive())
	assert.Equal(t, DefaultBenchmark, results.BenchmarkSymbol)
	assert.Equal(t, 0.0, results.WinRate)
	assert.Equal(t, 0.0, results.ProfitFactor)
	assert.NotNil(t, results.Trades)
	assert.Empty(t, results.Trades)
}

func TestEngine_RunShortRange(t *testing.T) {
	engine := createTestEngine(t, "2024-03-01", "2024-03-11")

	results, err := engine.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, results.Steps)
}

func TestEngine_BenchmarkReturn(t *testing.T) {
	provider := &stubProvider{first: decimal.NewFromInt(100), last: decimal.NewFromInt(125)}
	engine, err := NewEngine("2024-01-01", "2024-01-31", strategies.NewConservativeStrategy(), provider,
		WithSeed(3),
		WithBenchmark("ETH"),
	)
	require.NoError(t, err)

	results, err := engine.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 31, provider.requested)
	assert.Equal(t, "ETH", results.BenchmarkSymbol)
	assert.InDelta(t, 25.0, results.BenchmarkReturnPct, 1e-9)
}

func TestEngine_UnknownBenchmark(t *testing.T) {
	engine := createTestEngine(t, "2024-01-01", "2024-01-10", WithBenchmark("DOGE"))

	_, err := engine.Run(context.Background())

	assert.ErrorIs(t, err, market.ErrLookupNotFound)
}

func TestEngine_NoBenchmark(t *testing.T) {
	engine := createTestEngine(t, "2024-01-01", "2024-01-10", WithBenchmark(""))

	results, err := engine.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0.0, results.BenchmarkReturnPct)
}

func TestEngine_RejectedDecisionsAbortUnlessSkipped(t *testing.T) {
	aborting, err := NewEngine("2024-01-01", "2024-02-01", strategies.NewBalancedStrategy(), nil, WithSeed(5))
	require.NoError(t, err)
	_, err = aborting.Run(context.Background())
	assert.ErrorIs(t, err, strategies.ErrInsufficientCash)

	skipping, err := NewEngine("2024-01-01", "2024-02-01", strategies.NewBalancedStrategy(), nil,
		WithSeed(5),
		WithSkipRejected(true),
	)
	require.NoError(t, err)
	results, err := skipping.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 31, results.Steps)
}

func TestEngine_RunCancelled(t *testing.T) {
	engine := createTestEngine(t, "2024-01-01", "2024-12-31")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name     string
		initial  int64
		final    int64
		days     int
		expected float64
	}{
		{name: "Two Years", initial: 100, final: 121, days: 730, expected: 10},
		{name: "One Year", initial: 100, final: 90, days: 365, expected: -10},
		{name: "No Days", initial: 100, final: 121, days: 0, expected: 0},
		{name: "Zero Initial", initial: 0, final: 121, days: 365, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualizedReturn(decimal.NewFromInt(tt.initial), decimal.NewFromInt(tt.final), tt.days)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}
