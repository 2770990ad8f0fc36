package engine

import (
	"errors"
	"fmt"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/strategies"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidPrice = errors.New("invalid asset price")

var (
	defaultAssetPrice      = decimal.NewFromInt(1)
	defaultAssetVolatility = decimal.NewFromFloat(0.02)
)

// Router applies routing decisions to a portfolio.
type Router struct {
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		logger: logger,
	}
}

// Execute moves decision.Amount out of cash into the target position and
// then deducts the execution cost. The cost is charged even when it takes
// cash below zero; only the amount is checked against available cash.
//
// Topping up an existing position adds the raw amount to its value instead
// of re-deriving it from quantity and price. Opening a position derives the
// value from quantity and price.
func (r *Router) Execute(portfolio *models.Portfolio, decision models.RoutingDecision, market map[string]decimal.Decimal) error {
	if err := strategies.ValidateDecision(decision, portfolio); err != nil {
		return fmt.Errorf("route %s to %s (amount %s, cash %s): %w",
			decision.SourceAsset, decision.TargetAsset, decision.Amount.String(), cashOf(portfolio), err)
	}

	if position, exists := portfolio.Positions[decision.TargetAsset]; exists {
		if err := r.topUp(position, decision); err != nil {
			return err
		}
	} else {
		if err := r.open(portfolio, decision, market); err != nil {
			return err
		}
	}

	portfolio.Cash = portfolio.Cash.Sub(decision.Amount).Sub(decision.ExecutionCost)

	r.logger.Debug("Routing executed",
		zap.String("source", decision.SourceAsset),
		zap.String("target", decision.TargetAsset),
		zap.String("amount", decision.Amount.String()),
		zap.String("execution_cost", decision.ExecutionCost.String()),
		zap.String("cash", portfolio.Cash.String()),
	)

	return nil
}

func (r *Router) topUp(position *models.Position, decision models.RoutingDecision) error {
	price := position.Asset.CurrentPrice
	if !price.IsPositive() {
		return fmt.Errorf("top up %s at price %s: %w", decision.TargetAsset, price.String(), ErrInvalidPrice)
	}

	position.Quantity = position.Quantity.Add(decision.Amount.Div(price))
	position.CurrentValue = position.CurrentValue.Add(decision.Amount)
	return nil
}

func (r *Router) open(portfolio *models.Portfolio, decision models.RoutingDecision, market map[string]decimal.Decimal) error {
	price, ok := market[decision.TargetAsset]
	if !ok {
		price = defaultAssetPrice
	}
	if !price.IsPositive() {
		return fmt.Errorf("open %s at price %s: %w", decision.TargetAsset, price.String(), ErrInvalidPrice)
	}

	asset := models.Asset{
		Symbol:       decision.TargetAsset,
		Name:         fmt.Sprintf("Asset %s", decision.TargetAsset),
		Type:         models.AssetTypeCrypto,
		CurrentPrice: price,
		Volatility:   defaultAssetVolatility,
		YieldRate:    decision.ExpectedYield,
	}
	quantity := decision.Amount.Div(price)
	portfolio.Positions[asset.Symbol] = models.NewPosition(asset, quantity, price)

	r.logger.Debug("Position opened",
		zap.String("symbol", asset.Symbol),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
	)
	return nil
}

func cashOf(portfolio *models.Portfolio) string {
	if portfolio == nil {
		return "n/a"
	}
	return portfolio.Cash.String()
}
