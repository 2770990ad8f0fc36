package util

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimalFromFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected decimal.Decimal
	}{
		{name: "Regular", input: 1.25, expected: decimal.RequireFromString("1.25")},
		{name: "Negative", input: -0.5, expected: decimal.RequireFromString("-0.5")},
		{name: "NaN", input: math.NaN(), expected: decimal.Zero},
		{name: "Positive Infinity", input: math.Inf(1), expected: decimal.Zero},
		{name: "Negative Infinity", input: math.Inf(-1), expected: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(DecimalFromFloat(tt.input)))
		})
	}
}

func TestFloatFromDecimal(t *testing.T) {
	assert.Equal(t, 12.5, FloatFromDecimal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 0.0, FloatFromDecimal(decimal.Zero))
}

func TestPercentageChange(t *testing.T) {
	assert.InDelta(t, 10.0, PercentageChange(decimal.NewFromInt(100), decimal.NewFromInt(110)), 1e-9)
	assert.InDelta(t, -25.0, PercentageChange(decimal.NewFromInt(200), decimal.NewFromInt(150)), 1e-9)
	assert.Equal(t, 0.0, PercentageChange(decimal.Zero, decimal.NewFromInt(10)))
	assert.Equal(t, 0.0, PercentageChange(decimal.NewFromInt(-5), decimal.NewFromInt(10)))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$1234.57", FormatCurrency(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "$0.00", FormatCurrency(decimal.Zero))
	assert.Equal(t, "12.35%", FormatPercentage(12.346))
}
