package risk

import (
	"math"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/shopspring/decimal"
)

var (
	parametricRiskShare = decimal.NewFromFloat(0.05)
	cvarMultiplier      = decimal.NewFromFloat(1.3)
)

// ParametricVaR is a closed-form estimate that ignores the portfolio's
// return history: 5% of total value scaled by sqrt(horizonDays/252). It is
// not expected to agree with ValueAtRisk.
func ParametricVaR(portfolio *models.Portfolio, horizonDays int) decimal.Decimal {
	if portfolio == nil || horizonDays <= 0 {
		return decimal.Zero
	}
	timeFactor := util.DecimalFromFloat(math.Sqrt(float64(horizonDays) / TradingDaysPerYear))
	return portfolio.TotalValue.Mul(parametricRiskShare).Mul(timeFactor)
}

// ParametricCVaR is 1.3 times ParametricVaR.
func ParametricCVaR(portfolio *models.Portfolio, horizonDays int) decimal.Decimal {
	return ParametricVaR(portfolio, horizonDays).Mul(cvarMultiplier)
}
