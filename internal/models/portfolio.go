package models

import (
	"time"

	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NewPosition opens a position whose value is derived from the asset's
// current price.
func NewPosition(asset Asset, quantity, entryPrice decimal.Decimal) *Position {
	return &Position{
		Asset:        asset,
		Quantity:     quantity,
		EntryPrice:   entryPrice,
		CurrentValue: quantity.Mul(asset.CurrentPrice),
	}
}

// UpdatePrice moves the asset price and the derived value together.
func (p *Position) UpdatePrice(newPrice decimal.Decimal) {
	p.Asset.CurrentPrice = newPrice
	p.CurrentValue = p.Quantity.Mul(newPrice)
}

func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.Asset.CurrentPrice.Sub(p.EntryPrice).Mul(p.Quantity)
}

func (p *Position) UnrealizedPnLPct() decimal.Decimal {
	if !p.EntryPrice.IsPositive() {
		return decimal.Zero
	}
	return p.Asset.CurrentPrice.Sub(p.EntryPrice).Div(p.EntryPrice).Mul(hundred)
}

func NewPortfolio(initialCash decimal.Decimal, timestamp time.Time) *Portfolio {
	return &Portfolio{
		Positions:  make(map[string]*Position),
		Cash:       initialCash,
		TotalValue: initialCash,
		Timestamp:  timestamp,
	}
}

// AddPosition pays for the position out of cash and stores it under its
// asset symbol, replacing any position already held there.
func (p *Portfolio) AddPosition(position *Position) {
	p.Cash = p.Cash.Sub(position.CurrentValue)
	p.Positions[position.Asset.Symbol] = position
	p.UpdateTotalValue()
}

// RemovePosition liquidates the position at its current value. It returns
// nil when nothing is held under symbol.
func (p *Portfolio) RemovePosition(symbol string) *Position {
	position, exists := p.Positions[symbol]
	if !exists {
		return nil
	}
	delete(p.Positions, symbol)
	p.Cash = p.Cash.Add(position.CurrentValue)
	p.UpdateTotalValue()
	return position
}

func (p *Portfolio) PositionsValue() decimal.Decimal {
	total := decimal.Zero
	for _, position := range p.Positions {
		total = total.Add(position.CurrentValue)
	}
	return total
}

// UpdateTotalValue re-derives TotalValue as cash plus all position values.
func (p *Portfolio) UpdateTotalValue() {
	p.TotalValue = p.Cash.Add(p.PositionsValue())
}

// UpdatePrices applies new prices to held positions; symbols that are not
// held are ignored.
func (p *Portfolio) UpdatePrices(prices map[string]decimal.Decimal) {
	for symbol, price := range prices {
		if position, exists := p.Positions[symbol]; exists {
			position.UpdatePrice(price)
		}
	}
	p.UpdateTotalValue()
}

func (p *Portfolio) Snapshot() PortfolioSnapshot {
	return PortfolioSnapshot{
		Timestamp:      p.Timestamp,
		TotalValue:     p.TotalValue,
		Cash:           p.Cash,
		PositionsValue: p.PositionsValue(),
		PositionsCount: len(p.Positions),
	}
}

// DiversificationScore is one minus the Herfindahl index of position
// values: 0 for an empty or single-position portfolio, approaching 1 as
// holdings spread out evenly.
func (p *Portfolio) DiversificationScore() float64 {
	if len(p.Positions) == 0 {
		return 0
	}

	sizes := make([]float64, 0, len(p.Positions))
	total := 0.0
	for _, position := range p.Positions {
		size := util.FloatFromDecimal(position.CurrentValue)
		sizes = append(sizes, size)
		total += size
	}
	if total == 0 {
		return 0
	}

	herfindahl := 0.0
	for _, size := range sizes {
		share := size / total
		herfindahl += share * share
	}
	return 1 - herfindahl
}

// WeightedYield is the value-weighted yield rate across positions, using
// total value (cash included) as the denominator.
func (p *Portfolio) WeightedYield() decimal.Decimal {
	return p.weighted(func(position *Position) decimal.Decimal { return position.Asset.YieldRate })
}

// WeightedVolatility ignores correlations between assets.
func (p *Portfolio) WeightedVolatility() decimal.Decimal {
	return p.weighted(func(position *Position) decimal.Decimal { return position.Asset.Volatility })
}

func (p *Portfolio) weighted(field func(*Position) decimal.Decimal) decimal.Decimal {
	if len(p.Positions) == 0 || !p.TotalValue.IsPositive() {
		return decimal.Zero
	}

	result := decimal.Zero
	for _, position := range p.Positions {
		weight := position.CurrentValue.Div(p.TotalValue)
		result = result.Add(weight.Mul(field(position)))
	}
	return result
}
