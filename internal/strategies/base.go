package strategies

import (
	"time"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/shopspring/decimal"
)

// CashProxy is the source asset of every built-in routing decision.
const CashProxy = "USD"

// Strategy turns the current portfolio and market prices into routing
// decisions. Implementations hold no state besides their constants, so the
// same inputs always produce the same decisions.
type Strategy interface {
	Name() string
	Kind() Kind
	GenerateDecisions(portfolio *models.Portfolio, market map[string]decimal.Decimal) ([]models.RoutingDecision, error)
	GetConfig() models.StrategyConfig
}

type BaseStrategy struct {
	config models.StrategyConfig
}

func NewBaseStrategy(config models.StrategyConfig) *BaseStrategy {
	return &BaseStrategy{
		config: config,
	}
}

func (s *BaseStrategy) Name() string {
	return s.config.Name
}

func (s *BaseStrategy) GetConfig() models.StrategyConfig {
	return s.config
}

func (s *BaseStrategy) decision(timestamp time.Time, target string, amount, expectedYield decimal.Decimal, riskScore float64, executionCost decimal.Decimal) models.RoutingDecision {
	return models.RoutingDecision{
		Timestamp:     timestamp,
		SourceAsset:   CashProxy,
		TargetAsset:   target,
		Amount:        amount,
		ExpectedYield: expectedYield,
		RiskScore:     riskScore,
		ExecutionCost: executionCost,
	}
}

// ValidateDecision checks that the portfolio can fund the decision's amount.
// The execution cost is not part of the check.
func ValidateDecision(decision models.RoutingDecision, portfolio *models.Portfolio) error {
	if portfolio == nil {
		return ErrInvalidPortfolio
	}
	if decision.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if decision.Amount.GreaterThan(portfolio.Cash) {
		return ErrInsufficientCash
	}
	return nil
}

func checkPortfolio(portfolio *models.Portfolio) error {
	if portfolio == nil || portfolio.Positions == nil {
		return ErrInvalidPortfolio
	}
	return nil
}
