// Package market supplies reference prices, volatilities and yields for the
// backtest driver. The simulator generates its own prices and does not
// consult a provider.
package market

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/shopspring/decimal"
)

var ErrLookupNotFound = errors.New("market data not found")

type Provider interface {
	CurrentPrice(symbol string) (decimal.Decimal, error)
	// HistoricalPrices returns days prices ending at the current price,
	// oldest first.
	HistoricalPrices(symbol string, days int) ([]decimal.Decimal, error)
	Volatility(symbol string) (decimal.Decimal, error)
	YieldRate(symbol string) (decimal.Decimal, error)
}

type quote struct {
	price      decimal.Decimal
	volatility decimal.Decimal
	yieldRate  decimal.Decimal
}

// maxDailyMove bounds the uniform daily change of the synthetic walk.
const maxDailyMove = 0.02

var one = decimal.NewFromInt(1)

// MockProvider serves fixed quotes and synthesizes history with a seeded
// random walk. It is safe for concurrent use.
type MockProvider struct {
	mu     sync.Mutex
	rng    *rand.Rand
	quotes map[string]quote
}

// NewMockProvider seeds the history generator; zero seeds from the clock.
func NewMockProvider(seed int64) *MockProvider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockProvider{
		rng: rand.New(rand.NewSource(seed)),
		quotes: map[string]quote{
			"USDC": {price: decimal.NewFromInt(1), volatility: decimal.NewFromFloat(0.001), yieldRate: decimal.NewFromFloat(0.05)},
			"ETH":  {price: decimal.NewFromInt(2000), volatility: decimal.NewFromFloat(0.05), yieldRate: decimal.NewFromFloat(0.08)},
			"BTC":  {price: decimal.NewFromInt(40000), volatility: decimal.NewFromFloat(0.04), yieldRate: decimal.NewFromFloat(0.06)},
			"SOL":  {price: decimal.NewFromInt(100), volatility: decimal.NewFromFloat(0.06), yieldRate: decimal.NewFromFloat(0.10)},
		},
	}
}

// SetQuote adds or replaces a symbol.
func (p *MockProvider) SetQuote(symbol string, price, volatility, yieldRate decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[symbol] = quote{price: price, volatility: volatility, yieldRate: yieldRate}
}

func (p *MockProvider) Symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbols := make([]string, 0, len(p.quotes))
	for symbol := range p.quotes {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (p *MockProvider) lookup(symbol string) (quote, error) {
	q, ok := p.quotes[symbol]
	if !ok {
		return quote{}, fmt.Errorf("%w: %s", ErrLookupNotFound, symbol)
	}
	return q, nil
}

func (p *MockProvider) CurrentPrice(symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.lookup(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("current price: %w", err)
	}
	return q.price, nil
}

func (p *MockProvider) Volatility(symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.lookup(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("volatility: %w", err)
	}
	return q.volatility, nil
}

func (p *MockProvider) YieldRate(symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.lookup(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("yield rate: %w", err)
	}
	return q.yieldRate, nil
}

// HistoricalPrices walks backwards from the current price with uniform
// daily moves in [-2%, 2%). At least one price is always returned.
func (p *MockProvider) HistoricalPrices(symbol string, days int) ([]decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("historical prices: %w", err)
	}

	prices := []decimal.Decimal{q.price}
	for i := 1; i < days; i++ {
		last := prices[len(prices)-1]
		prices = append(prices, last.Mul(one.Add(p.dailyMove())))
	}

	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

// dailyMove must be called with mu held.
func (p *MockProvider) dailyMove() decimal.Decimal {
	return util.DecimalFromFloat((p.rng.Float64()*2 - 1) * maxDailyMove)
}
