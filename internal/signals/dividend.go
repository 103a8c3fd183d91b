package signals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rcabral/pse-advisor/internal/models"
)

// reitDistributionClause states the statutory REIT payout floor under the
// Philippine REIT Act of 2009.
const reitDistributionClause = "As a REIT, the company is required to distribute at least 90% of its distributable income as dividends."

// NormalizeYield converts a reported dividend yield to a decimal fraction.
// Providers report percent form (5.54); anything above 1 is treated as a
// percentage. Idempotent for already-normalized values.
func NormalizeYield(reported float64) float64 {
	if reported > 1 {
		return reported / 100
	}
	if reported < 0 {
		return 0
	}
	return reported
}

// EstimateDividendRate derives the annual dividend per share from price
// and normalized yield, rounded to 4 decimals.
func EstimateDividendRate(price, yield float64) float64 {
	if price <= 0 || yield <= 0 {
		return 0
	}
	return Round(price*yield, 4)
}

// EstimatePayoutRatio estimates total dividends paid against the latest
// annual net income, rounded to 4 decimals. Returns 0 when the latest net
// income is missing or non-positive.
func EstimatePayoutRatio(dividendRate, sharesOutstanding float64, netIncomeByYear map[string]float64) float64 {
	if dividendRate <= 0 || sharesOutstanding <= 0 {
		return 0
	}
	year := latestYear(netIncomeByYear)
	if year == "" {
		return 0
	}
	netIncome := netIncomeByYear[year]
	if netIncome <= 0 {
		return 0
	}
	return Round(dividendRate*sharesOutstanding/netIncome, 4)
}

// BuildSustainabilityNote assembles a prose assessment of whether the
// dividend looks sustainable: the REIT payout mandate, the net-income
// trajectory, the estimated payout ratio, and free-cash-flow cover.
// Returns "" when nothing can be said.
func BuildSustainabilityNote(profile models.StockProfile, trends models.FinancialTrends, payoutRatio float64) string {
	var clauses []string

	if profile.IsREIT {
		clauses = append(clauses, reitDistributionClause)
	}

	if clause := netIncomeClause(trends.NetIncome); clause != "" {
		clauses = append(clauses, clause)
	}

	if payoutRatio > 0 {
		clauses = append(clauses, fmt.Sprintf("Estimated payout ratio: %.1f%%.", payoutRatio*100))
	}

	if year := latestYear(trends.FreeCashFlow); year != "" {
		if fcf := trends.FreeCashFlow[year]; fcf > 0 {
			clauses = append(clauses, fmt.Sprintf("Free cash flow in %s: %.2fB PHP (positive).", year, fcf/1e9))
		}
	}

	return strings.Join(clauses, " ")
}

// netIncomeClause describes the net-income trajectory. It needs at least
// three distinct years to say anything: growth when the series grew end
// to end, otherwise the latest positive figure.
func netIncomeClause(netIncome map[string]float64) string {
	years := sortedYears(netIncome)
	if len(years) < 3 {
		return ""
	}

	first, last := years[0], years[len(years)-1]
	firstVal, lastVal := netIncome[first], netIncome[last]

	if firstVal > 0 && lastVal > firstVal {
		growthPct := (lastVal - firstVal) / firstVal * 100
		return fmt.Sprintf("Net income grew ~%.0f%% from %s to %s (%.2fB → %.2fB PHP), supporting the dividend.",
			growthPct, first, last, firstVal/1e9, lastVal/1e9)
	}

	if lastVal > 0 {
		return fmt.Sprintf("Net income in %s: %.2fB PHP.", last, lastVal/1e9)
	}
	return ""
}

func sortedYears(series map[string]float64) []string {
	years := make([]string, 0, len(series))
	for y := range series {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

func latestYear(series map[string]float64) string {
	years := sortedYears(series)
	if len(years) == 0 {
		return ""
	}
	return years[len(years)-1]
}
