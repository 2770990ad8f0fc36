package strategies

import (
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/shopspring/decimal"
)

var (
	aggressiveMinCash    = decimal.NewFromInt(1000)
	aggressiveAllocation = decimal.NewFromFloat(0.6)
	aggressiveYield      = decimal.NewFromFloat(0.20)
	aggressiveFee        = decimal.NewFromFloat(0.005)
)

const (
	aggressiveTarget    = "HIGH_YIELD_POOL"
	aggressiveRiskScore = 0.8
)

type AggressiveStrategy struct {
	*BaseStrategy
}

func NewAggressiveStrategy() *AggressiveStrategy {
	risk := models.DefaultRiskParameters()
	risk.MaxPositionSizePct = 40.0
	risk.MaxDrawdownPct = 30.0
	return &AggressiveStrategy{
		BaseStrategy: NewBaseStrategy(models.StrategyConfig{
			Name:                   KindAggressive.String(),
			RiskParameters:         risk,
			RebalanceFrequencyDays: 7,
			MinYieldThreshold:      0.15,
			MaxSlippagePct:         2.0,
			PreferredAssetTypes:    []models.AssetType{models.AssetTypeDeFiPool, models.AssetTypeCrypto},
		}),
	}
}

func (s *AggressiveStrategy) Kind() Kind {
	return KindAggressive
}

func (s *AggressiveStrategy) GenerateDecisions(portfolio *models.Portfolio, _ map[string]decimal.Decimal) ([]models.RoutingDecision, error) {
	if err := checkPortfolio(portfolio); err != nil {
		return nil, err
	}

	var decisions []models.RoutingDecision
	if portfolio.Cash.LessThan(aggressiveMinCash) {
		return decisions, nil
	}

	amount := portfolio.Cash.Mul(aggressiveAllocation)
	decisions = append(decisions, s.decision(
		portfolio.Timestamp,
		aggressiveTarget,
		amount,
		aggressiveYield,
		aggressiveRiskScore,
		amount.Mul(aggressiveFee),
	))

	return decisions, nil
}
