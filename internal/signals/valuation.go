package signals

import "math"

// grahamMultiplier is Benjamin Graham's 22.5 factor: a P/E of 15 times a
// P/B of 1.5.
const grahamMultiplier = 22.5

// GrahamNumber estimates fair value as sqrt(22.5 x EPS x book value per
// share), rounded to 2 decimals. Returns 0 unless both inputs are positive.
func GrahamNumber(eps, bookValuePerShare float64) float64 {
	if eps <= 0 || bookValuePerShare <= 0 {
		return 0
	}
	return Round(math.Sqrt(grahamMultiplier*eps*bookValuePerShare), 2)
}

// FallbackFairValue estimates fair value as EPS x 15 when book value is
// unavailable, rounded to 2 decimals. Returns 0 unless EPS is positive.
func FallbackFairValue(eps float64) float64 {
	if eps <= 0 {
		return 0
	}
	return Round(eps*15, 2)
}

// DiscountPct is the margin between fair value and price, in percent of
// fair value, rounded to 2 decimals. Positive means undervalued. Returns
// 0 when fair value is not positive.
func DiscountPct(fairValue, price float64) float64 {
	if fairValue <= 0 {
		return 0
	}
	return Round((fairValue-price)/fairValue*100, 2)
}
