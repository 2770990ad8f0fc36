package strategies

import (
	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/shopspring/decimal"
)

var (
	riskParityMinCash       = decimal.NewFromInt(1000)
	riskParityMinAllocation = decimal.NewFromInt(500)
	riskParityYield         = decimal.NewFromFloat(0.10)
	riskParityFee           = decimal.NewFromFloat(0.002)
)

const riskParityRiskScore = 0.4

var riskParityTargets = []string{"USDC", "ETH", "BTC", "SOL"}

// RiskParityStrategy splits idle cash evenly across its target list.
type RiskParityStrategy struct {
	*BaseStrategy
	targets []string
}

func NewRiskParityStrategy() *RiskParityStrategy {
	risk := models.DefaultRiskParameters()
	risk.CorrelationLimit = 0.5
	return &RiskParityStrategy{
		BaseStrategy: NewBaseStrategy(models.StrategyConfig{
			Name:                   KindRiskParity.String(),
			RiskParameters:         risk,
			RebalanceFrequencyDays: 30,
			MinYieldThreshold:      0.04,
			MaxSlippagePct:         1.0,
			PreferredAssetTypes:    []models.AssetType{models.AssetTypeCrypto, models.AssetTypeStablecoin, models.AssetTypeRWABond},
		}),
		targets: riskParityTargets,
	}
}

func (s *RiskParityStrategy) Kind() Kind {
	return KindRiskParity
}

func (s *RiskParityStrategy) GenerateDecisions(portfolio *models.Portfolio, _ map[string]decimal.Decimal) ([]models.RoutingDecision, error) {
	if err := checkPortfolio(portfolio); err != nil {
		return nil, err
	}

	var decisions []models.RoutingDecision
	if portfolio.Cash.LessThan(riskParityMinCash) {
		return decisions, nil
	}

	tranche := portfolio.Cash.Div(decimal.NewFromInt(int64(len(s.targets))))
	for _, target := range s.targets {
		if _, held := portfolio.Positions[target]; held {
			continue
		}
		if !tranche.GreaterThan(riskParityMinAllocation) {
			continue
		}
		decisions = append(decisions, s.decision(
			portfolio.Timestamp,
			target,
			tranche,
			riskParityYield,
			riskParityRiskScore,
			tranche.Mul(riskParityFee),
		))
	}

	return decisions, nil
}
