package util

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DecimalFromFloat converts f to a decimal. NaN and infinities become zero.
func DecimalFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// FloatFromDecimal converts d to a float64, returning zero when the value
// does not fit.
func FloatFromDecimal(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// PercentageChange returns (newValue-oldValue)/oldValue*100, or zero when
// oldValue is not positive.
func PercentageChange(oldValue, newValue decimal.Decimal) float64 {
	if !oldValue.IsPositive() {
		return 0
	}
	return FloatFromDecimal(newValue.Sub(oldValue).Div(oldValue).Mul(hundred))
}

func FormatCurrency(value decimal.Decimal) string {
	return fmt.Sprintf("$%s", value.StringFixed(2))
}

func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}
