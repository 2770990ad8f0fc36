// Package risk holds the performance and risk formulas shared by the
// simulator, the Monte Carlo engine and standalone reporting. Every
// function is pure.
package risk

import (
	"math"
	"sort"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

const TradingDaysPerYear = 252

var annualization = math.Sqrt(TradingDaysPerYear)

// SnapshotValues extracts total values from a snapshot history.
func SnapshotValues(history []models.PortfolioSnapshot) []float64 {
	values := make([]float64, 0, len(history))
	for _, snapshot := range history {
		values = append(values, util.FloatFromDecimal(snapshot.TotalValue))
	}
	return values
}

// Returns computes consecutive fractional changes. A change following a
// non-positive value is recorded as zero.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev > 0 {
			returns = append(returns, (values[i]-prev)/prev)
		} else {
			returns = append(returns, 0)
		}
	}
	return returns
}

// meanAndStdDev uses the population standard deviation.
func meanAndStdDev(returns []float64) (float64, float64, bool) {
	if len(returns) == 0 {
		return 0, 0, false
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0, 0, false
	}
	stdDev, err := stats.StandardDeviationPopulation(returns)
	if err != nil || math.IsNaN(stdDev) {
		return 0, 0, false
	}
	return mean, stdDev, true
}

// SharpeRatio is (mean - riskFreeRate) / stddev, annualized over 252
// trading days. It is zero for an empty or constant series.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	mean, stdDev, ok := meanAndStdDev(returns)
	if !ok || stdDev == 0 {
		return 0
	}
	return (mean - riskFreeRate) / stdDev * annualization
}

// Volatility is the annualized standard deviation of returns, in percent.
func Volatility(returns []float64) float64 {
	_, stdDev, ok := meanAndStdDev(returns)
	if !ok {
		return 0
	}
	return stdDev * annualization * 100
}

// MaxDrawdown is the largest fall from a running peak, in percent of that
// peak. The peak starts at the first value.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDrawdown := 0.0
	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - value) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// MaxDrawdownFromHistory needs at least two snapshots to report a drawdown.
func MaxDrawdownFromHistory(history []models.PortfolioSnapshot) float64 {
	if len(history) < 2 {
		return 0
	}
	return MaxDrawdown(SnapshotValues(history))
}

func sortedCopy(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted
}

// tailIndex is floor((1-confidence)*n), clamped to [0, n].
func tailIndex(n int, confidence float64) int {
	index := int((1 - confidence) * float64(n))
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

// TailValue sorts values ascending and returns the one at the tail index,
// or zero when the index falls outside the series.
func TailValue(values []float64, confidence float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	index := tailIndex(len(sorted), confidence)
	if index >= len(sorted) {
		return 0
	}
	return sorted[index]
}

// TailMean averages the sorted values strictly below the tail index. It is
// zero when that slice is empty.
func TailMean(values []float64, confidence float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	tail := sorted[:tailIndex(len(sorted), confidence)]
	if len(tail) == 0 {
		return 0
	}
	mean, err := stats.Mean(tail)
	if err != nil {
		return 0
	}
	return mean
}

// VaRReturn is the signed historical-simulation tail return.
func VaRReturn(returns []float64, confidence float64) float64 {
	return TailValue(returns, confidence)
}

// ValueAtRisk scales the magnitude of the tail return by the current
// portfolio value.
func ValueAtRisk(returns []float64, confidence float64, currentValue decimal.Decimal) decimal.Decimal {
	if len(returns) == 0 {
		return decimal.Zero
	}
	return currentValue.Mul(util.DecimalFromFloat(math.Abs(VaRReturn(returns, confidence))))
}

// ConditionalVaR scales the magnitude of the mean tail return by the
// current portfolio value.
func ConditionalVaR(returns []float64, confidence float64, currentValue decimal.Decimal) decimal.Decimal {
	if len(returns) == 0 {
		return decimal.Zero
	}
	return currentValue.Mul(util.DecimalFromFloat(math.Abs(TailMean(returns, confidence))))
}

// Percentile looks up the value at floor(p*n) in an ascending slice,
// clamped to the last element.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(p * float64(len(sorted)))
	if index < 0 {
		index = 0
	}
	if index > len(sorted)-1 {
		index = len(sorted) - 1
	}
	return sorted[index]
}
