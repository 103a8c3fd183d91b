package signals

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcabral/pse-advisor/internal/models"
)

func TestDerivePriceCatalysts_REITDividendPlay(t *testing.T) {
	profile := models.StockProfile{
		StockCode:         "CREIT",
		Price:             43.5,
		PrevDayClosePrice: 43.05,
		WeekHigh52:        45.5,
		WeekLow52:         38.0,
		DividendYield:     5.54,
		IsREIT:            true,
	}

	catalysts := DerivePriceCatalysts(profile, testConfig())
	require.NotEmpty(t, catalysts)

	joined := strings.Join(catalysts, " ")
	assert.Contains(t, joined, "REIT")
	assert.Contains(t, joined, "dividend")
	// up 1.05% on the day with a 5.54% yield
	assert.Contains(t, joined, "accumulation ahead of a dividend event")
	// 43.5 sits within 4.4% of the 45.5 high
	assert.Contains(t, joined, "52-week high")
}

func TestDerivePriceCatalysts_NonREIT(t *testing.T) {
	profile := models.StockProfile{
		Price:         43.5,
		WeekHigh52:    60.0,
		WeekLow52:     38.0,
		DividendYield: 5.54,
	}

	// range percentile 25% — below the dividend-play threshold; price 27%
	// below the high — no proximity catalyst
	catalysts := DerivePriceCatalysts(profile, testConfig())
	assert.Empty(t, catalysts)
}

func TestDerivePriceCatalysts_NoPrice(t *testing.T) {
	assert.Nil(t, DerivePriceCatalysts(models.StockProfile{}, testConfig()))
}

func TestDerivePriceCatalysts_DegenerateRange(t *testing.T) {
	// high == low: position defaults to mid-range, no dividend-play flag
	profile := models.StockProfile{
		Price:         10.0,
		WeekHigh52:    10.0,
		WeekLow52:     10.0,
		DividendYield: 8.0,
	}
	catalysts := DerivePriceCatalysts(profile, testConfig())
	// only the near-high catalyst fires (price == high)
	require.Len(t, catalysts, 1)
	assert.Contains(t, catalysts[0], "52-week high")
}

func TestVolatility(t *testing.T) {
	// returns: +10%, -10% -> population std of {0.1, -0.1} = 0.1 -> 10%
	assert.Equal(t, 10.0, Volatility([]float64{100, 110, 99}))
	assert.Equal(t, 0.0, Volatility([]float64{100}))
	assert.Equal(t, 0.0, Volatility(nil))
	// flat series has zero volatility
	assert.Equal(t, 0.0, Volatility([]float64{50, 50, 50}))
}

func TestDailyReturns_SkipsZeroBase(t *testing.T) {
	returns := DailyReturns([]float64{100, 0, 50, 55})
	// 0->50 is skipped (division by zero base); 100->0 gives -1
	assert.Equal(t, []float64{-1, 0.1}, returns)
}

func TestMaxDrawdownPct(t *testing.T) {
	// peak 120, trough 84: -30%
	assert.Equal(t, -30.0, MaxDrawdownPct([]float64{100, 120, 84, 110}))
	// rising series never draws down
	assert.Equal(t, 0.0, MaxDrawdownPct([]float64{10, 20, 30}))
	assert.Equal(t, 0.0, MaxDrawdownPct(nil))

	// drawdown is never positive
	series := []float64{5, 9, 3, 12, 7, 6, 14}
	assert.LessOrEqual(t, MaxDrawdownPct(series), 0.0)
}

func TestMonthEndAverages(t *testing.T) {
	bars := []models.OHLCVBar{
		{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Close: 10},
		{Date: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), Close: 12},
		{Date: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), Close: 20},
		{Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Close: 7},
	}
	assert.Equal(t, []float64{11, 20, 7}, MonthEndAverages(bars))
	assert.Empty(t, MonthEndAverages(nil))
}

func TestClassifyTrend(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, models.TrendUp, ClassifyTrend(12.0, cfg))
	assert.Equal(t, models.TrendDown, ClassifyTrend(-8.0, cfg))
	assert.Equal(t, models.TrendSideways, ClassifyTrend(3.0, cfg))
	assert.Equal(t, models.TrendSideways, ClassifyTrend(-5.0, cfg))
	assert.Equal(t, models.TrendSideways, ClassifyTrend(5.0, cfg))
}

func TestGrahamNumber(t *testing.T) {
	// sqrt(22.5 * 2 * 8) = sqrt(360) = 18.97
	assert.Equal(t, 18.97, GrahamNumber(2, 8))
	assert.Equal(t, 0.0, GrahamNumber(-1, 8))
	assert.Equal(t, 0.0, GrahamNumber(2, 0))

	// monotone in both inputs
	assert.Greater(t, GrahamNumber(3, 8), GrahamNumber(2, 8))
	assert.Greater(t, GrahamNumber(2, 9), GrahamNumber(2, 8))
}

func TestFallbackFairValue(t *testing.T) {
	assert.Equal(t, 37.5, FallbackFairValue(2.5))
	assert.Equal(t, 0.0, FallbackFairValue(0))
	assert.Equal(t, 0.0, FallbackFairValue(-3))
}

func TestDiscountPct(t *testing.T) {
	assert.Equal(t, 20.0, DiscountPct(100, 80))
	assert.Equal(t, -25.0, DiscountPct(100, 125))
	assert.Equal(t, 0.0, DiscountPct(0, 80))
}

func TestNormalizeYield(t *testing.T) {
	assert.Equal(t, 0.0554, NormalizeYield(5.54))
	assert.Equal(t, 0.0554, NormalizeYield(0.0554))
	assert.Equal(t, 0.0, NormalizeYield(-2))
	assert.Equal(t, 1.0, NormalizeYield(100))

	// idempotent: normalizing twice changes nothing
	once := NormalizeYield(6.91)
	assert.Equal(t, once, NormalizeYield(once))
	assert.GreaterOrEqual(t, once, 0.0)
	assert.LessOrEqual(t, once, 1.0)
}

func TestEstimateDividendRate(t *testing.T) {
	assert.Equal(t, 2.4099, EstimateDividendRate(43.5, 0.0554))
	assert.Equal(t, 0.0, EstimateDividendRate(0, 0.05))
	assert.Equal(t, 0.0, EstimateDividendRate(43.5, 0))
}

func TestEstimatePayoutRatio(t *testing.T) {
	netIncome := map[string]float64{"2022": 4e9, "2023": 5e9}
	// 2.0/share x 1.5B shares / 5B latest net income = 0.6
	assert.Equal(t, 0.6, EstimatePayoutRatio(2.0, 1.5e9, netIncome))

	// latest-year net income must be positive
	assert.Equal(t, 0.0, EstimatePayoutRatio(2.0, 1.5e9, map[string]float64{"2023": -1e9}))
	assert.Equal(t, 0.0, EstimatePayoutRatio(2.0, 1.5e9, nil))
	assert.Equal(t, 0.0, EstimatePayoutRatio(0, 1.5e9, netIncome))
}

func TestBuildSustainabilityNote(t *testing.T) {
	profile := models.StockProfile{IsREIT: true}
	trends := models.FinancialTrends{
		NetIncome:    map[string]float64{"2021": 4.0e9, "2022": 4.8e9, "2023": 6.0e9},
		FreeCashFlow: map[string]float64{"2023": 3.2e9},
	}

	note := BuildSustainabilityNote(profile, trends, 0.62)

	assert.Contains(t, note, "at least 90% of its distributable income")
	assert.Contains(t, note, "Net income grew ~50% from 2021 to 2023 (4.00B → 6.00B PHP)")
	assert.Contains(t, note, "Estimated payout ratio: 62.0%.")
	assert.Contains(t, note, "Free cash flow in 2023: 3.20B PHP (positive).")
}

func TestBuildSustainabilityNote_ShortHistory(t *testing.T) {
	// fewer than three years of net income says nothing about the trend
	trends := models.FinancialTrends{
		NetIncome: map[string]float64{"2022": 2.1e9, "2023": 2.5e9},
	}
	note := BuildSustainabilityNote(models.StockProfile{}, trends, 0)
	assert.Equal(t, "", note)
}

func TestBuildSustainabilityNote_DecliningIncome(t *testing.T) {
	// three years but no end-to-end growth: only the latest positive figure
	trends := models.FinancialTrends{
		NetIncome: map[string]float64{"2021": 5.0e9, "2022": 4.0e9, "2023": 2.5e9},
	}
	note := BuildSustainabilityNote(models.StockProfile{}, trends, 0)
	assert.Equal(t, "Net income in 2023: 2.50B PHP.", note)
}

func TestBuildSustainabilityNote_Empty(t *testing.T) {
	assert.Equal(t, "", BuildSustainabilityNote(models.StockProfile{}, models.FinancialTrends{}, 0))
}

func TestDetectSuddenSpikes(t *testing.T) {
	bars := flatBars(40, 10.0, 1e6)
	// mostly tiny moves with one 12% crash
	for i := 1; i < len(bars); i++ {
		bars[i].Close = bars[i-1].Close * 1.001
		if i < len(bars)-1 {
			bars[i+1].Open = bars[i].Close
		}
	}
	bars[30].Close = bars[29].Close * 0.88

	spikes := DetectSuddenSpikes(bars, testConfig())
	require.NotEmpty(t, spikes)
	assert.Contains(t, spikes[0], "spike down of -12.0%")
}

func TestDetectSuddenSpikes_FlatSeries(t *testing.T) {
	assert.Empty(t, DetectSuddenSpikes(flatBars(30, 10.0, 1e6), testConfig()))
}

func TestDeriveRiskFactors(t *testing.T) {
	cfg := testConfig()

	// calm series around its average: no risks
	calm := []float64{10, 10.1, 9.9, 10.05, 9.95, 10}
	assert.Empty(t, DeriveRiskFactors(calm, cfg))

	// last price far above the period average
	elevated := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 14}
	risks := DeriveRiskFactors(elevated, cfg)
	require.NotEmpty(t, risks)
	joined := strings.Join(risks, " ")
	assert.Contains(t, joined, "above its 52-week average")

	// last price far below the period average
	depressed := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 6}
	risks = DeriveRiskFactors(depressed, cfg)
	require.NotEmpty(t, risks)
	assert.Contains(t, strings.Join(risks, " "), "below its 52-week average")

	assert.Empty(t, DeriveRiskFactors(nil, cfg))
}
