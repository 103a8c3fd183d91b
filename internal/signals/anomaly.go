package signals

import (
	"fmt"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/models"
)

// DetectSuddenSpikes flags daily returns that are both statistical
// outliers (beyond k standard deviations) and material in absolute terms.
// The absolute floor keeps quiet, tightly-ranged stocks from flagging
// noise moves.
func DetectSuddenSpikes(bars []models.OHLCVBar, cfg common.SignalConfig) []string {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	returns := DailyReturns(closes)
	std := StdDev(returns)
	if std == 0 {
		return nil
	}

	var spikes []string
	ri := 0
	for i := 1; i < len(bars); i++ {
		if closes[i-1] == 0 {
			continue
		}
		ret := returns[ri]
		ri++

		if abs(ret) > cfg.SpikeStdMultiplier*std && abs(ret) > cfg.SpikeMinAbsReturn {
			direction := "up"
			if ret < 0 {
				direction = "down"
			}
			spikes = append(spikes, fmt.Sprintf("%s: spike %s of %.1f%%",
				bars[i].Date.Format(dateLayout), direction, ret*100))
		}
	}
	return spikes
}

// DeriveRiskFactors derives coarse risk flags from a one-year close
// series: elevated daily volatility, and the current price sitting far
// above or below the period average.
func DeriveRiskFactors(closes []float64, cfg common.SignalConfig) []string {
	if len(closes) == 0 {
		return nil
	}

	var risks []string

	returns := DailyReturns(closes)
	if StdDev(returns) > cfg.HighVolatilityStd {
		risks = append(risks, fmt.Sprintf("High daily volatility (return std above %.0f%%).",
			cfg.HighVolatilityStd*100))
	}

	var sum float64
	for _, c := range closes {
		sum += c
	}
	avg := sum / float64(len(closes))
	last := closes[len(closes)-1]

	if avg > 0 {
		if last > avg*cfg.OvervaluationMultiplier {
			risks = append(risks, fmt.Sprintf("Current price is more than %.0f%% above its 52-week average, a potential overvaluation.",
				(cfg.OvervaluationMultiplier-1)*100))
		} else if last < avg*cfg.DistressMultiplier {
			risks = append(risks, fmt.Sprintf("Current price is more than %.0f%% below its 52-week average, a potential distress signal.",
				(1-cfg.DistressMultiplier)*100))
		}
	}

	return risks
}
