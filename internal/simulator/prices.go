package simulator

import (
	"math"
	"sort"

	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// One simulated day per step.
const daysPerYear = 365.0

var (
	dt        = util.DecimalFromFloat(1 / daysPerYear)
	sqrtDt    = math.Sqrt(1 / daysPerYear)
	minPrice  = decimal.NewFromFloat(0.01)
	one       = decimal.NewFromInt(1)
	shockBias = 0.5
)

// evolvePrice advances price by one step of a drifted random walk:
// price * (1 + drift*dt + shock*sqrt(dt)*volatility). The shock is
// uniform on [-0.5, 0.5), not Gaussian.
func evolvePrice(price, drift, volatility decimal.Decimal, shock float64) decimal.Decimal {
	driftTerm := drift.Mul(dt)
	shockTerm := util.DecimalFromFloat(shock * sqrtDt).Mul(volatility)

	newPrice := price.Mul(one.Add(driftTerm).Add(shockTerm))
	if !newPrice.IsPositive() {
		newPrice = minPrice
	}
	return newPrice
}

// updateMarketPrices draws one shock per held position, in symbol order so
// a seeded run is reproducible, and records the new prices as market state.
func (s *Simulator) updateMarketPrices() {
	symbols := make([]string, 0, len(s.portfolio.Positions))
	for symbol := range s.portfolio.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		position := s.portfolio.Positions[symbol]
		shock := s.rng.Float64() - shockBias
		newPrice := evolvePrice(position.Asset.CurrentPrice, position.Asset.YieldRate, position.Asset.Volatility, shock)

		position.UpdatePrice(newPrice)
		s.marketState[symbol] = newPrice

		s.logger.Debug("Price updated",
			zap.String("symbol", symbol),
			zap.String("price", newPrice.String()),
			zap.Float64("shock", shock),
		)
	}
}
