package kernel

import "github.com/shopspring/decimal"

// RoundDn rounds value down to the nearest multiple of step. A zero step
// disables rounding.
func RoundDn(value, step float64) float64 {
	if step <= 0 {
		return value
	}

	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	out, _ := v.Div(s).Floor().Mul(s).Float64()

	return out
}

// RoundUp rounds value up to the nearest multiple of step. A zero step
// disables rounding.
func RoundUp(value, step float64) float64 {
	if step <= 0 {
		return value
	}

	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	out, _ := v.Div(s).Ceil().Mul(s).Float64()

	return out
}
