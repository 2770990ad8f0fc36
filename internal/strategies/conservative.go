package strategies

import (
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/shopspring/decimal"
)

var (
	conservativeMinCashRatio  = decimal.NewFromFloat(0.1)
	conservativeAllocation    = decimal.NewFromFloat(0.3)
	conservativeMinAllocation = decimal.NewFromInt(1000)
	conservativeYield         = decimal.NewFromFloat(0.05)
	conservativeFee           = decimal.NewFromFloat(0.001)
)

const (
	conservativeTarget    = "USDC"
	conservativeRiskScore = 0.1
)

// ConservativeStrategy parks part of its idle cash in a stablecoin.
type ConservativeStrategy struct {
	*BaseStrategy
}

func NewConservativeStrategy() *ConservativeStrategy {
	risk := models.DefaultRiskParameters()
	risk.MaxPositionSizePct = 15.0
	return &ConservativeStrategy{
		BaseStrategy: NewBaseStrategy(models.StrategyConfig{
			Name:                   KindConservative.String(),
			RiskParameters:         risk,
			RebalanceFrequencyDays: 30,
			MinYieldThreshold:      0.03,
			MaxSlippagePct:         0.5,
			PreferredAssetTypes:    []models.AssetType{models.AssetTypeStablecoin, models.AssetTypeRWABond},
		}),
	}
}

func (s *ConservativeStrategy) Kind() Kind {
	return KindConservative
}

func (s *ConservativeStrategy) GenerateDecisions(portfolio *models.Portfolio, _ map[string]decimal.Decimal) ([]models.RoutingDecision, error) {
	if err := checkPortfolio(portfolio); err != nil {
		return nil, err
	}

	var decisions []models.RoutingDecision
	if portfolio.Cash.LessThan(portfolio.TotalValue.Mul(conservativeMinCashRatio)) {
		return decisions, nil
	}

	amount := portfolio.Cash.Mul(conservativeAllocation)
	if amount.GreaterThan(conservativeMinAllocation) {
		decisions = append(decisions, s.decision(
			portfolio.Timestamp,
			conservativeTarget,
			amount,
			conservativeYield,
			conservativeRiskScore,
			amount.Mul(conservativeFee),
		))
	}

	return decisions, nil
}
