package signals

import (
	"math"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/models"
)

// DailyReturns computes day-over-day fractional returns from a close
// series. Days following a zero close are skipped.
func DailyReturns(closes []float64) []float64 {
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}

// StdDev computes the population standard deviation
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Volatility is the standard deviation of daily returns, in percent,
// rounded to 4 decimals. Needs at least two closes.
func Volatility(closes []float64) float64 {
	returns := DailyReturns(closes)
	if len(returns) == 0 {
		return 0
	}
	return Round(StdDev(returns)*100, 4)
}

// MaxDrawdownPct is the worst peak-to-trough decline over the series, in
// percent, rounded to 2 decimals. Always <= 0; 0 for monotonically rising
// or empty series.
func MaxDrawdownPct(closes []float64) float64 {
	var peak, worst float64
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak == 0 {
			continue
		}
		dd := (c - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return Round(worst, 2)
}

// MonthEndAverages computes the average close per calendar month, in
// chronological order, rounded to 2 decimals. Input bars must already be
// sorted ascending by date.
func MonthEndAverages(bars []models.OHLCVBar) []float64 {
	var averages []float64
	var sum float64
	var n int
	var curYear, curMonth int

	flush := func() {
		if n > 0 {
			averages = append(averages, Round(sum/float64(n), 2))
		}
		sum, n = 0, 0
	}

	for _, b := range bars {
		y, m := b.Date.Year(), int(b.Date.Month())
		if n > 0 && (y != curYear || m != curMonth) {
			flush()
		}
		curYear, curMonth = y, m
		sum += b.Close
		n++
	}
	flush()

	return averages
}

// ClassifyTrend maps a one-year percent change onto a trend direction
func ClassifyTrend(changePct float64, cfg common.SignalConfig) models.TrendDirection {
	switch {
	case changePct > cfg.TrendUpPct:
		return models.TrendUp
	case changePct < cfg.TrendDownPct:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
