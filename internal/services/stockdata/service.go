// Package stockdata assembles the five per-dimension snapshots that feed
// the analysis pipeline. Once a symbol validates, every method is total:
// provider failures degrade individual fields, never the whole snapshot.
package stockdata

import (
	"context"
	"strings"

	"github.com/rcabral/pse-advisor/internal/clients/tradingview"
	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
	"github.com/rcabral/pse-advisor/internal/signals"
)

const (
	currency = "PHP"

	// historyDays is the calendar window for price-history queries
	historyDays = 365

	// newsCount is how many DragonFi headlines feed the controversy view
	newsCount = 5

	// dividendDisclosureMatches caps the EDGE Form 6-1 filings surfaced
	dividendDisclosureMatches = 3
)

// Service implements the StockDataService interface
type Service struct {
	profiles interfaces.SecuritiesProfileClient
	ohlcv    interfaces.OHLCVClient
	scanner  interfaces.ScannerClient
	search   interfaces.SearchClient
	cfg      common.SignalConfig
	logger   *common.Logger
}

// NewService creates a new stock data service
func NewService(
	profiles interfaces.SecuritiesProfileClient,
	ohlcv interfaces.OHLCVClient,
	scanner interfaces.ScannerClient,
	search interfaces.SearchClient,
	cfg common.SignalConfig,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		profiles: profiles,
		ohlcv:    ohlcv,
		scanner:  scanner,
		search:   search,
		cfg:      cfg,
		logger:   logger,
	}
}

// ValidateSymbol resolves a raw ticker to its canonical PSE stock code
func (s *Service) ValidateSymbol(ctx context.Context, raw string) (string, error) {
	return s.profiles.ValidateSymbol(ctx, raw)
}

// Price builds the current-price snapshot with derived price catalysts
func (s *Service) Price(ctx context.Context, symbol string) models.StockSnapshot {
	profile := s.profiles.GetProfile(ctx, symbol)

	snapshot := models.StockSnapshot{
		Symbol:   symbol,
		Currency: currency,
	}
	if profile.IsEmpty() {
		s.logger.Warn().Str("symbol", symbol).Msg("No profile data for price snapshot")
		return snapshot
	}

	snapshot.CurrentPrice = profile.Price
	snapshot.PreviousClose = profile.PrevDayClosePrice
	snapshot.FiftyTwoWeekHigh = profile.WeekHigh52
	snapshot.FiftyTwoWeekLow = profile.WeekLow52
	snapshot.PriceCatalysts = signals.DerivePriceCatalysts(profile, s.cfg)

	return snapshot
}

// Dividend builds the dividend snapshot: estimated rate and payout ratio,
// a sustainability note, recent web news, and any cash-dividend filings
// scraped from EDGE.
func (s *Service) Dividend(ctx context.Context, symbol string) models.DividendSnapshot {
	profile := s.profiles.GetProfile(ctx, symbol)

	snapshot := models.DividendSnapshot{Symbol: symbol}
	if profile.DividendYield <= 0 {
		s.logger.Debug().Str("symbol", symbol).Msg("No dividend yield reported")
		return snapshot
	}

	trends := s.profiles.GetFinancialTrends(ctx, symbol)

	yield := signals.NormalizeYield(profile.DividendYield)
	rate := signals.EstimateDividendRate(profile.Price, yield)
	payout := signals.EstimatePayoutRatio(rate, profile.SharesOutstanding, trends.NetIncome)

	snapshot.DividendYield = yield
	snapshot.DividendRate = rate
	snapshot.AnnualDividendPerShare = rate
	snapshot.PayoutRatio = payout
	snapshot.IsREIT = profile.IsREIT
	snapshot.NetIncomeTrend = trends.NetIncome
	snapshot.RevenueTrend = trends.Revenue
	snapshot.FreeCashFlowTrend = trends.FreeCashFlow
	snapshot.SustainabilityNote = signals.BuildSustainabilityNote(profile, trends, payout)

	news := s.search.SearchDividendNews(ctx, symbol, profile.CompanyName)
	if declared := s.ohlcv.GetRecentDividendDeclarations(ctx, symbol, dividendDisclosureMatches); len(declared) > 0 {
		var lines []string
		lines = append(lines, "Declared dividends on PSE EDGE:")
		for _, d := range declared {
			lines = append(lines, "• "+d.Summary())
		}
		news = news + "\n\n" + strings.Join(lines, "\n")
	}
	snapshot.RecentDividendNews = news

	return snapshot
}

// Movement builds the one-year movement snapshot. PSE EDGE history is the
// primary source; when it yields nothing the TradingView scanner serves as
// an atomic fallback (all derived fields switch together, never a mix).
func (s *Service) Movement(ctx context.Context, symbol string) models.MovementSnapshot {
	bars := s.ohlcv.GetOHLCV(ctx, symbol, historyDays)
	profile := s.profiles.GetProfile(ctx, symbol)

	snapshot := models.MovementSnapshot{
		Symbol:         symbol,
		PriceCatalysts: signals.DerivePriceCatalysts(profile, s.cfg),
		WebNews:        s.search.SearchStockNews(ctx, symbol, profile.CompanyName),
	}

	if len(bars) > 0 {
		s.fillMovementFromHistory(&snapshot, bars)
		// scanner horizons are corroborating context alongside the history
		snapshot.PerformanceSummary = tradingview.FormatPerformanceSummary(s.scanner.GetSnapshot(ctx, symbol))
		return snapshot
	}

	s.logger.Warn().Str("symbol", symbol).Msg("No EDGE history, falling back to scanner")
	if scan := s.scanner.GetSnapshot(ctx, symbol); !scan.IsEmpty() {
		s.fillMovementFromScanner(&snapshot, scan, profile)
		return snapshot
	}

	s.logger.Warn().Str("symbol", symbol).Msg("No movement data from any source")
	return snapshot
}

func (s *Service) fillMovementFromHistory(snapshot *models.MovementSnapshot, bars []models.OHLCVBar) {
	closes := make([]float64, len(bars))
	maxPrice, minPrice := bars[0].Close, bars[0].Close
	for i, b := range bars {
		closes[i] = b.Close
		if b.Close > maxPrice {
			maxPrice = b.Close
		}
		if b.Close < minPrice {
			minPrice = b.Close
		}
	}

	start, end := closes[0], closes[len(closes)-1]
	var changePct float64
	if start != 0 {
		changePct = signals.Round((end-start)/start*100, 2)
	}

	snapshot.YearStartPrice = signals.Round(start, 2)
	snapshot.YearEndPrice = signals.Round(end, 2)
	snapshot.YearChangePct = changePct
	snapshot.MaxPrice = signals.Round(maxPrice, 2)
	snapshot.MinPrice = signals.Round(minPrice, 2)
	snapshot.Volatility = signals.Volatility(closes)
	snapshot.MaxDrawdownPct = signals.MaxDrawdownPct(closes)
	snapshot.Trend = signals.ClassifyTrend(changePct, s.cfg)
	snapshot.MonthlyPrices = signals.MonthEndAverages(bars)
	snapshot.CandlestickPatterns = signals.DetectCandlestickPatterns(bars, s.cfg, s.logger).Text()
}

func (s *Service) fillMovementFromScanner(snapshot *models.MovementSnapshot, scan models.ScannerSnapshot, profile models.StockProfile) {
	current := scan.Close
	if current == 0 {
		current = profile.Price
	}

	changePct := scan.PerfYear
	if changePct == 0 && scan.WeekLow52 > 0 && current > 0 {
		changePct = (current - scan.WeekLow52) / scan.WeekLow52 * 100
	}
	changePct = signals.Round(changePct, 2)

	yearStart := scan.WeekLow52
	if scan.PerfYear != 0 {
		yearStart = current / (1 + scan.PerfYear/100)
	}

	snapshot.YearStartPrice = signals.Round(yearStart, 2)
	snapshot.YearEndPrice = signals.Round(current, 2)
	snapshot.YearChangePct = changePct
	snapshot.MaxPrice = signals.Round(scan.WeekHigh52, 2)
	snapshot.MinPrice = signals.Round(scan.WeekLow52, 2)
	snapshot.Volatility = signals.Round(scan.VolatilityMonthly, 4)
	if scan.WeekHigh52 > 0 {
		snapshot.MaxDrawdownPct = signals.Round((scan.WeekLow52-scan.WeekHigh52)/scan.WeekHigh52*100, 2)
	}
	snapshot.Trend = signals.ClassifyTrend(changePct, s.cfg)
	snapshot.PerformanceSummary = tradingview.FormatPerformanceSummary(scan)
}

// Valuation builds the fair-value snapshot around the Graham number
func (s *Service) Valuation(ctx context.Context, symbol string) models.ValuationSnapshot {
	profile := s.profiles.GetProfile(ctx, symbol)

	snapshot := models.ValuationSnapshot{Symbol: symbol}
	if profile.Price <= 0 {
		s.logger.Warn().Str("symbol", symbol).Msg("No price for valuation snapshot")
		return snapshot
	}

	ratios := s.profiles.GetValuation(ctx, symbol)

	snapshot.CurrentPrice = profile.Price
	snapshot.PERatio = ratios.PE
	snapshot.PBRatio = ratios.PB

	var eps, book float64
	if ratios.PE > 0 {
		eps = signals.Round(profile.Price/ratios.PE, 2)
	}
	if ratios.PB > 0 {
		book = signals.Round(profile.Price/ratios.PB, 2)
		snapshot.BookValuePerShare = book
	}

	fairValue := signals.GrahamNumber(eps, book)
	if fairValue == 0 {
		fairValue = signals.FallbackFairValue(eps)
	}
	snapshot.EstimatedFairValue = fairValue
	snapshot.DiscountPct = signals.DiscountPct(fairValue, profile.Price)

	metrics := s.profiles.GetMetrics(ctx, symbol)
	snapshot.PEGRatio = metrics["pegRatio"]
	snapshot.ForwardPE = metrics["forwardPE"]

	return snapshot
}

// Controversy builds the anomaly and risk snapshot
func (s *Service) Controversy(ctx context.Context, symbol string) models.ControversySnapshot {
	snapshot := models.ControversySnapshot{Symbol: symbol}

	bars := s.ohlcv.GetOHLCV(ctx, symbol, historyDays)
	snapshot.SuddenSpikes = signals.DetectSuddenSpikes(bars, s.cfg)

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	snapshot.RiskFactors = signals.DeriveRiskFactors(closes, s.cfg)

	headlines := s.profiles.GetRecentNews(ctx, symbol, newsCount)
	if len(headlines) == 0 {
		snapshot.RecentNewsSummary = "No recent news available from DragonFi."
	} else {
		var lines []string
		for _, h := range headlines {
			if h.Title == "" {
				continue
			}
			if h.Source != "" {
				lines = append(lines, "["+h.Source+"] "+h.Title)
			} else {
				lines = append(lines, h.Title)
			}
		}
		if len(lines) == 0 {
			snapshot.RecentNewsSummary = "No recent news found."
		} else {
			snapshot.RecentNewsSummary = strings.Join(lines, "\n")
		}
	}

	profile := s.profiles.GetProfile(ctx, symbol)
	snapshot.WebNews = s.buildWebNewsBlock(ctx, symbol, profile.CompanyName)

	return snapshot
}

// buildWebNewsBlock combines general and controversy-focused web search
// results. Fallback sentences (the "No ..." responses) are filtered out;
// when nothing substantive remains a single explanatory line is returned.
func (s *Service) buildWebNewsBlock(ctx context.Context, symbol, companyName string) string {
	var blocks []string

	if news := s.search.SearchStockNews(ctx, symbol, companyName); !strings.HasPrefix(news, "No ") {
		blocks = append(blocks, "**Recent Web News:**\n"+news)
	}
	if controversies := s.search.SearchControversies(ctx, symbol, companyName); !strings.HasPrefix(controversies, "No ") {
		blocks = append(blocks, "**Controversy Search:**\n"+controversies)
	}

	if len(blocks) == 0 {
		return "No web news available (Tavily API key may not be configured)."
	}
	return strings.Join(blocks, "\n\n")
}

var _ interfaces.StockDataService = (*Service)(nil)
