package signals

import (
	"fmt"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/models"
)

// DerivePriceCatalysts inspects a stock profile for conditions that
// plausibly explain recent price strength: dividend-play positioning,
// dividend-driven momentum, and proximity to the 52-week high. Returns
// nil when the profile carries no usable price.
func DerivePriceCatalysts(profile models.StockProfile, cfg common.SignalConfig) []string {
	price := profile.Price
	if price <= 0 {
		return nil
	}

	high := profile.WeekHigh52
	low := profile.WeekLow52
	yield := profile.DividendYield

	// position within the 52-week range, as a percentile
	rangePct := 50.0
	if high > low {
		rangePct = (price - low) / (high - low) * 100
	}

	var catalysts []string

	if yield > cfg.CatalystYieldPct && rangePct > cfg.CatalystRangePct {
		if profile.IsREIT {
			catalysts = append(catalysts, fmt.Sprintf(
				"REIT with a %.1f%% dividend yield trading in the upper part of its 52-week range (%.0f%% percentile), a likely dividend play. Philippine REITs distribute dividends quarterly.",
				yield, rangePct))
		} else {
			catalysts = append(catalysts, fmt.Sprintf(
				"Dividend yield of %.1f%% with the price in the upper part of its 52-week range (%.0f%% percentile) suggests income-seeking demand.",
				yield, rangePct))
		}
	}

	if prev := profile.PrevDayClosePrice; prev > 0 && price > prev {
		dayChangePct := (price - prev) / prev * 100
		if dayChangePct > cfg.CatalystDayChangePct && yield > cfg.CatalystYieldPct {
			catalysts = append(catalysts, fmt.Sprintf(
				"Price is up %.1f%% on the day with a %.1f%% dividend yield, suggesting accumulation ahead of a dividend event.",
				dayChangePct, yield))
		}
	}

	if high > 0 {
		gapToHighPct := (high - price) / high * 100
		if gapToHighPct < cfg.CatalystNearHighPct {
			catalysts = append(catalysts, fmt.Sprintf(
				"Price is within %.1f%% of its 52-week high (₱%.2f), indicating strong buying pressure.",
				gapToHighPct, high))
		}
	}

	return catalysts
}
