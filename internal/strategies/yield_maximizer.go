package strategies

import (
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/shopspring/decimal"
)

var (
	yieldMaxMinCash    = decimal.NewFromInt(1000)
	yieldMaxAllocation = decimal.NewFromFloat(0.9)
	yieldMaxYield      = decimal.NewFromFloat(0.25)
	yieldMaxFee        = decimal.NewFromFloat(0.003)
)

const (
	yieldMaxTarget    = "MAX_YIELD"
	yieldMaxRiskScore = 0.7
)

// YieldMaximizerStrategy routes almost all idle cash to the highest yield
// target. Its fee is charged on the whole cash balance, not the allocation.
type YieldMaximizerStrategy struct {
	*BaseStrategy
}

func NewYieldMaximizerStrategy() *YieldMaximizerStrategy {
	risk := models.DefaultRiskParameters()
	risk.MaxPositionSizePct = 90.0
	return &YieldMaximizerStrategy{
		BaseStrategy: NewBaseStrategy(models.StrategyConfig{
			Name:                   KindYieldMaximizer.String(),
			RiskParameters:         risk,
			RebalanceFrequencyDays: 1,
			MinYieldThreshold:      0.02,
			MaxSlippagePct:         1.5,
			PreferredAssetTypes:    []models.AssetType{models.AssetTypeDeFiPool, models.AssetTypeRWACredit},
		}),
	}
}

func (s *YieldMaximizerStrategy) Kind() Kind {
	return KindYieldMaximizer
}

func (s *YieldMaximizerStrategy) GenerateDecisions(portfolio *models.Portfolio, _ map[string]decimal.Decimal) ([]models.RoutingDecision, error) {
	if err := checkPortfolio(portfolio); err != nil {
		return nil, err
	}

	var decisions []models.RoutingDecision
	if !portfolio.Cash.GreaterThan(yieldMaxMinCash) {
		return decisions, nil
	}

	decisions = append(decisions, s.decision(
		portfolio.Timestamp,
		yieldMaxTarget,
		portfolio.Cash.Mul(yieldMaxAllocation),
		yieldMaxYield,
		yieldMaxRiskScore,
		portfolio.Cash.Mul(yieldMaxFee),
	))

	return decisions, nil
}
