// Package analytics derives dashboard figures from measurement records. Every
// function here is pure: inputs are never mutated and nothing is cached.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

var decHundred = decimal.NewFromInt(100)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// round1 rounds half away from zero to one decimal place.
func round1(val float64) float64 {
	return decToFloat(decFromFloat(val).Round(1))
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func ptr(v float64) *float64 { return &v }
