package strategies

import (
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/shopspring/decimal"
)

var (
	balancedMinCash       = decimal.NewFromInt(1000)
	balancedTranche       = decimal.NewFromFloat(0.2)
	balancedMinAllocation = decimal.NewFromInt(500)
	balancedYield         = decimal.NewFromFloat(0.08)
	balancedFee           = decimal.NewFromFloat(0.002)
)

const balancedRiskScore = 0.5

var balancedTargets = []string{"USDC", "ETH", "BTC", "SOL", "MATIC"}

// BalancedStrategy opens equal tranches in assets it does not hold yet.
type BalancedStrategy struct {
	*BaseStrategy
	targets []string
}

func NewBalancedStrategy() *BalancedStrategy {
	risk := models.DefaultRiskParameters()
	risk.MaxPositionSizePct = 25.0
	return &BalancedStrategy{
		BaseStrategy: NewBaseStrategy(models.StrategyConfig{
			Name:                   KindBalanced.String(),
			RiskParameters:         risk,
			RebalanceFrequencyDays: 14,
			MinYieldThreshold:      0.05,
			MaxSlippagePct:         1.0,
			PreferredAssetTypes:    []models.AssetType{models.AssetTypeCrypto, models.AssetTypeStablecoin},
		}),
		targets: balancedTargets,
	}
}

func (s *BalancedStrategy) Kind() Kind {
	return KindBalanced
}

func (s *BalancedStrategy) GenerateDecisions(portfolio *models.Portfolio, _ map[string]decimal.Decimal) ([]models.RoutingDecision, error) {
	if err := checkPortfolio(portfolio); err != nil {
		return nil, err
	}

	var decisions []models.RoutingDecision
	if portfolio.Cash.LessThan(balancedMinCash) {
		return decisions, nil
	}

	tranche := portfolio.Cash.Mul(balancedTranche)
	for _, target := range s.targets {
		if _, held := portfolio.Positions[target]; held {
			continue
		}
		if !tranche.GreaterThan(balancedMinAllocation) {
			continue
		}
		decisions = append(decisions, s.decision(
			portfolio.Timestamp,
			target,
			tranche,
			balancedYield,
			balancedRiskScore,
			tranche.Mul(balancedFee),
		))
	}

	return decisions, nil
}
