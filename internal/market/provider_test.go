package market

import (
	"testing"

	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Quotes(t *testing.T) {
	provider := NewMockProvider(7)

	tests := []struct {
		symbol     string
		price      int64
		volatility float64
		yieldRate  float64
	}{
		{symbol: "USDC", price: 1, volatility: 0.001, yieldRate: 0.05},
		{symbol: "ETH", price: 2000, volatility: 0.05, yieldRate: 0.08},
		{symbol: "BTC", price: 40000, volatility: 0.04, yieldRate: 0.06},
		{symbol: "SOL", price: 100, volatility: 0.06, yieldRate: 0.10},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			price, err := provider.CurrentPrice(tt.symbol)
			require.NoError(t, err)
			assert.True(t, price.Equal(decimal.NewFromInt(tt.price)))

			volatility, err := provider.Volatility(tt.symbol)
			require.NoError(t, err)
			assert.True(t, volatility.Equal(decimal.NewFromFloat(tt.volatility)))

			yieldRate, err := provider.YieldRate(tt.symbol)
			require.NoError(t, err)
			assert.True(t, yieldRate.Equal(decimal.NewFromFloat(tt.yieldRate)))
		})
	}

	assert.Equal(t, []string{"BTC", "ETH", "SOL", "USDC"}, provider.Symbols())
}

func TestMockProvider_LookupNotFound(t *testing.T) {
	provider := NewMockProvider(7)

	_, err := provider.CurrentPrice("DOGE")
	assert.ErrorIs(t, err, ErrLookupNotFound)
	_, err = provider.Volatility("DOGE")
	assert.ErrorIs(t, err, ErrLookupNotFound)
	_, err = provider.YieldRate("DOGE")
	assert.ErrorIs(t, err, ErrLookupNotFound)
	_, err = provider.HistoricalPrices("DOGE", 10)
	assert.ErrorIs(t, err, ErrLookupNotFound)
}

func TestMockProvider_HistoricalPrices(t *testing.T) {
	provider := NewMockProvider(7)

	prices, err := provider.HistoricalPrices("ETH", 30)

	require.NoError(t, err)
	require.Len(t, prices, 30)
	assert.True(t, prices[len(prices)-1].Equal(decimal.NewFromInt(2000)), "newest price is the current price")
	for i := 1; i < len(prices); i++ {
		// walking backwards, each older price is within 2% of the next newer one
		move := util.FloatFromDecimal(prices[i-1].Div(prices[i])) - 1
		assert.InDelta(t, 0, move, maxDailyMove+1e-12)
	}
}

func TestMockProvider_HistoricalPrices_Short(t *testing.T) {
	provider := NewMockProvider(7)

	for _, days := range []int{-1, 0, 1} {
		prices, err := provider.HistoricalPrices("SOL", days)
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.True(t, prices[0].Equal(decimal.NewFromInt(100)))
	}
}

func TestMockProvider_SeededHistoryIsReproducible(t *testing.T) {
	first, err := NewMockProvider(99).HistoricalPrices("BTC", 50)
	require.NoError(t, err)
	second, err := NewMockProvider(99).HistoricalPrices("BTC", 50)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]))
	}
}

func TestMockProvider_SetQuote(t *testing.T) {
	provider := NewMockProvider(7)
	provider.SetQuote("MATIC", decimal.NewFromFloat(0.8), decimal.NewFromFloat(0.07), decimal.NewFromFloat(0.09))

	price, err := provider.CurrentPrice("MATIC")

	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.8)))
	assert.Contains(t, provider.Symbols(), "MATIC")
}
