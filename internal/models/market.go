// Package models defines the domain data types for the advisor
package models

import (
	"strings"
	"time"
)

// TrendDirection classifies a one-year price trend
type TrendDirection string

const (
	TrendUp       TrendDirection = "uptrend"
	TrendDown     TrendDirection = "downtrend"
	TrendSideways TrendDirection = "sideways"
)

// OHLCVBar is a single trading day's summary.
// Volume carries the PSE EDGE "VALUE" field (traded value in PHP),
// which is what the exchange's own chart plots.
type OHLCVBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// StockProfile is the normalized DragonFi securities profile.
// A zero-value profile means the upstream returned nothing usable.
type StockProfile struct {
	StockCode         string  `json:"stock_code"`
	CompanyName       string  `json:"company_name"`
	Price             float64 `json:"price"`
	PrevDayClosePrice float64 `json:"prev_day_close_price"`
	WeekHigh52        float64 `json:"week_high_52"`
	WeekLow52         float64 `json:"week_low_52"`
	DividendYield     float64 `json:"dividend_yield"` // as reported (usually percent, e.g. 5.54)
	SharesOutstanding float64 `json:"shares_outstanding"`
	IsREIT            bool    `json:"is_reit"`
}

// IsEmpty reports whether the profile carries no usable data
func (p StockProfile) IsEmpty() bool {
	return p.StockCode == "" && p.Price == 0
}

// ValuationRatios holds the current annual valuation multiples
type ValuationRatios struct {
	PE float64 `json:"pe"`
	PB float64 `json:"pb"`
}

// FinancialTrends holds multi-year annual figures keyed by 4-digit year
// string ("2023"). At most one entry per calendar year.
type FinancialTrends struct {
	NetIncome    map[string]float64 `json:"net_income"`
	Revenue      map[string]float64 `json:"revenue"`
	FreeCashFlow map[string]float64 `json:"free_cash_flow"`
}

// NewsHeadline is a single DragonFi news article reference
type NewsHeadline struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	PublishDate string `json:"publish_date"`
}

// ScannerSnapshot holds the TradingView scanner fields for one ticker.
// Missing or null upstream values are normalized to 0.0, so a genuine
// zero reading is indistinguishable from "no data" — callers treat zero
// as "omit".
type ScannerSnapshot struct {
	Close  float64 `json:"close"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`

	PerfWeek float64 `json:"perf_week"`
	Perf1M   float64 `json:"perf_1m"`
	Perf3M   float64 `json:"perf_3m"`
	Perf6M   float64 `json:"perf_6m"`
	PerfYear float64 `json:"perf_year"`
	PerfYTD  float64 `json:"perf_ytd"`

	VolatilityDaily   float64 `json:"volatility_daily"`
	VolatilityWeekly  float64 `json:"volatility_weekly"`
	VolatilityMonthly float64 `json:"volatility_monthly"`

	WeekHigh52 float64 `json:"week_high_52"`
	WeekLow52  float64 `json:"week_low_52"`
}

// IsEmpty reports whether the snapshot carries no data at all
func (s ScannerSnapshot) IsEmpty() bool {
	return s == ScannerSnapshot{}
}

// SearchResult is a single web-search hit
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// DeclaredDividend is a cash-dividend declaration scraped from a PSE EDGE
// Form 6-1 disclosure.
type DeclaredDividend struct {
	Symbol         string `json:"symbol"`
	AmountPerShare string `json:"amount_per_share"`
	ExDate         string `json:"ex_date"`
	RecordDate     string `json:"record_date"`
	PaymentDate    string `json:"payment_date"`
	AnnounceDate   string `json:"announce_date"`
}

// Summary renders a one-line human-readable description
func (d DeclaredDividend) Summary() string {
	parts := []string{d.Symbol}
	if d.AmountPerShare != "" {
		parts = append(parts, "cash dividend of "+d.AmountPerShare+"/share")
	}
	if d.ExDate != "" {
		parts = append(parts, "ex-date "+d.ExDate)
	}
	if d.RecordDate != "" {
		parts = append(parts, "record date "+d.RecordDate)
	}
	if d.PaymentDate != "" {
		parts = append(parts, "payment date "+d.PaymentDate)
	}
	if d.AnnounceDate != "" {
		parts = append(parts, "(announced "+d.AnnounceDate+")")
	}
	return strings.Join(parts, ", ")
}

// StockSnapshot is the current-price view of a stock
type StockSnapshot struct {
	Symbol           string   `json:"symbol"`
	CurrentPrice     float64  `json:"current_price"`
	Currency         string   `json:"currency"`
	FiftyTwoWeekHigh float64  `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64  `json:"fifty_two_week_low"`
	PreviousClose    float64  `json:"previous_close"`
	PriceCatalysts   []string `json:"price_catalysts"`
}

// DividendSnapshot holds dividend metrics and sustainability context
type DividendSnapshot struct {
	Symbol                 string             `json:"symbol"`
	DividendRate           float64            `json:"dividend_rate"`  // currency/share/year
	DividendYield          float64            `json:"dividend_yield"` // decimal fraction (0.06, not 6.0)
	PayoutRatio            float64            `json:"payout_ratio"`
	IsREIT                 bool               `json:"is_reit"`
	AnnualDividendPerShare float64            `json:"annual_dividend_per_share"`
	NetIncomeTrend         map[string]float64 `json:"net_income_trend"`
	RevenueTrend           map[string]float64 `json:"revenue_trend"`
	FreeCashFlowTrend      map[string]float64 `json:"free_cash_flow_trend"`
	SustainabilityNote     string             `json:"dividend_sustainability_note"`
	RecentDividendNews     string             `json:"recent_dividend_news"`
}

// MovementSnapshot summarizes one year of price movement
type MovementSnapshot struct {
	Symbol              string         `json:"symbol"`
	YearStartPrice      float64        `json:"year_start_price"`
	YearEndPrice        float64        `json:"year_end_price"`
	YearChangePct       float64        `json:"year_change_pct"`
	MaxPrice            float64        `json:"max_price"`
	MinPrice            float64        `json:"min_price"`
	Volatility          float64        `json:"volatility"`       // std-dev of daily returns, percent
	MaxDrawdownPct      float64        `json:"max_drawdown_pct"` // always <= 0
	Trend               TrendDirection `json:"trend"`
	MonthlyPrices       []float64      `json:"monthly_prices"` // month-end average closes, in order
	PriceCatalysts      []string       `json:"price_catalysts"`
	CandlestickPatterns string         `json:"candlestick_patterns"`
	PerformanceSummary  string         `json:"performance_summary"`
	WebNews             string         `json:"web_news"`
}

// ValuationSnapshot holds fair-value estimation data
type ValuationSnapshot struct {
	Symbol             string  `json:"symbol"`
	CurrentPrice       float64 `json:"current_price"`
	BookValuePerShare  float64 `json:"book_value_per_share"`
	PERatio            float64 `json:"pe_ratio"`
	PBRatio            float64 `json:"pb_ratio"`
	PEGRatio           float64 `json:"peg_ratio"`
	ForwardPE          float64 `json:"forward_pe"`
	EstimatedFairValue float64 `json:"estimated_fair_value"`
	DiscountPct        float64 `json:"discount_pct"` // positive = undervalued
}

// ControversySnapshot holds anomaly and risk data
type ControversySnapshot struct {
	Symbol            string   `json:"symbol"`
	SuddenSpikes      []string `json:"sudden_spikes"`
	RiskFactors       []string `json:"risk_factors"`
	RecentNewsSummary string   `json:"recent_news_summary"`
	WebNews           string   `json:"web_news"`
}

// CandlestickFindings aggregates the candlestick detector results.
// Each list is populated independently; a failed pass leaves its list empty.
type CandlestickFindings struct {
	NotableCandles  []string `json:"notable_candles"`
	GapEvents       []string `json:"gap_events"`
	VolumeSpikes    []string `json:"volume_spikes"`
	SellingPressure []string `json:"selling_pressure_periods"`
	BuyingPressure  []string `json:"buying_pressure_periods"`
}

// Text formats the findings into an LLM-friendly summary string
func (f CandlestickFindings) Text() string {
	var sections []string
	appendSection := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		lines := make([]string, 0, len(items)+1)
		lines = append(lines, "**"+title+":**")
		for _, item := range items {
			lines = append(lines, "  • "+item)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	appendSection("Notable Candles", f.NotableCandles)
	appendSection("Gap Events", f.GapEvents)
	appendSection("Volume Spikes", f.VolumeSpikes)
	appendSection("Selling Pressure", f.SellingPressure)
	appendSection("Buying Pressure", f.BuyingPressure)

	if len(sections) == 0 {
		return "No notable candlestick patterns detected."
	}
	return strings.Join(sections, "\n")
}
