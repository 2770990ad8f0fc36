package engine

import (
	"testing"
	"time"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPortfolio() *models.Portfolio {
	return models.NewPortfolio(decimal.NewFromInt(10000), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func createTestDecision(target string, amount, cost int64) models.RoutingDecision {
	return models.RoutingDecision{
		SourceAsset:   strategies.CashProxy,
		TargetAsset:   target,
		Amount:        decimal.NewFromInt(amount),
		ExpectedYield: decimal.NewFromFloat(0.08),
		RiskScore:     0.5,
		ExecutionCost: decimal.NewFromInt(cost),
	}
}

func TestRouter_OpenPosition(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()

	err := router.Execute(portfolio, createTestDecision("ETH", 4000, 8), nil)

	require.NoError(t, err)
	require.Contains(t, portfolio.Positions, "ETH")
	position := portfolio.Positions["ETH"]
	assert.True(t, position.Asset.CurrentPrice.Equal(decimal.NewFromInt(1)))
	assert.True(t, position.Quantity.Equal(decimal.NewFromInt(4000)))
	assert.True(t, position.CurrentValue.Equal(decimal.NewFromInt(4000)))
	assert.True(t, position.EntryPrice.Equal(decimal.NewFromInt(1)))
	assert.True(t, position.Asset.Volatility.Equal(decimal.NewFromFloat(0.02)))
	assert.True(t, position.Asset.YieldRate.Equal(decimal.NewFromFloat(0.08)))
	assert.Equal(t, models.AssetTypeCrypto, position.Asset.Type)
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(10000-4000-8)))
}

func TestRouter_OpenPosition_MarketPrice(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()
	market := map[string]decimal.Decimal{"BTC": decimal.NewFromInt(40000)}

	err := router.Execute(portfolio, createTestDecision("BTC", 8000, 0), market)

	require.NoError(t, err)
	position := portfolio.Positions["BTC"]
	assert.True(t, position.Quantity.Equal(decimal.NewFromFloat(0.2)))
	assert.True(t, position.CurrentValue.Equal(decimal.NewFromInt(8000)))
}

func TestRouter_TopUp(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()
	require.NoError(t, router.Execute(portfolio, createTestDecision("USDC", 2000, 2), nil))
	portfolio.Positions["USDC"].UpdatePrice(decimal.NewFromInt(2))

	err := router.Execute(portfolio, createTestDecision("USDC", 1000, 1), nil)

	require.NoError(t, err)
	position := portfolio.Positions["USDC"]
	assert.True(t, position.Quantity.Equal(decimal.NewFromInt(2500)))
	assert.True(t, position.CurrentValue.Equal(decimal.NewFromInt(5000)))
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(10000-2000-2-1000-1)))
}

func TestRouter_CashAccounting(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()
	decisions := []models.RoutingDecision{
		createTestDecision("ETH", 3000, 6),
		createTestDecision("BTC", 2500, 5),
		createTestDecision("ETH", 1000, 2),
	}

	for _, d := range decisions {
		before := portfolio.Cash
		require.NoError(t, router.Execute(portfolio, d, nil))
		assert.True(t, portfolio.Cash.Equal(before.Sub(d.Amount).Sub(d.ExecutionCost)))
		assert.False(t, portfolio.Cash.IsNegative())
	}

	portfolio.UpdateTotalValue()
	assert.True(t, portfolio.TotalValue.Equal(portfolio.Cash.Add(portfolio.PositionsValue())))
}

func TestRouter_InsufficientCash(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()

	err := router.Execute(portfolio, createTestDecision("ETH", 10001, 10), nil)

	assert.ErrorIs(t, err, strategies.ErrInsufficientCash)
	assert.Empty(t, portfolio.Positions)
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(10000)))
}

func TestRouter_FeeCanOverdrawCash(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()

	err := router.Execute(portfolio, createTestDecision("ETH", 10000, 25), nil)

	require.NoError(t, err)
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(-25)))
}

func TestRouter_InvalidPrice(t *testing.T) {
	router := NewRouter(nil)
	portfolio := createTestPortfolio()
	market := map[string]decimal.Decimal{"ETH": decimal.Zero}

	err := router.Execute(portfolio, createTestDecision("ETH", 100, 0), market)

	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(10000)))
}
