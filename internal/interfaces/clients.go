// Package interfaces defines service contracts for the advisor
package interfaces

import (
	"context"

	"github.com/rcabral/pse-advisor/internal/models"
)

// SecuritiesProfileClient provides access to the DragonFi securities API.
// Every method except ValidateSymbol degrades to an empty value on any
// upstream failure — no error is returned past the client boundary.
type SecuritiesProfileClient interface {
	// ValidateSymbol resolves a raw ticker to its canonical PSE stock code.
	// This is the only operation that can fail outward; it returns a
	// *dragonfi.SymbolNotFoundError when the ticker cannot be resolved.
	ValidateSymbol(ctx context.Context, raw string) (string, error)

	// GetProfile retrieves the stock profile (empty profile on failure)
	GetProfile(ctx context.Context, code string) models.StockProfile

	// GetValuation retrieves the current PE/PB multiples (zeros on failure)
	GetValuation(ctx context.Context, code string) models.ValuationRatios

	// GetMetrics retrieves flat numeric financial metrics (empty map on failure)
	GetMetrics(ctx context.Context, code string) map[string]float64

	// GetFinancialTrends retrieves multi-year annual income and cash-flow
	// series keyed by 4-digit year string (empty maps on failure)
	GetFinancialTrends(ctx context.Context, code string) models.FinancialTrends

	// GetRecentNews retrieves up to count headlines, newest first
	GetRecentNews(ctx context.Context, code string, count int) []models.NewsHeadline
}

// OHLCVClient provides daily price history from the PSE EDGE endpoints
type OHLCVClient interface {
	// GetOHLCV retrieves daily bars for the last days calendar days,
	// ordered ascending by date. Returns an empty slice — never an
	// error — when resolution or retrieval fails.
	GetOHLCV(ctx context.Context, code string, days int) []models.OHLCVBar

	// GetRecentDividendDeclarations scrapes recent cash-dividend filings
	// for the symbol, newest first. Empty slice on any failure.
	GetRecentDividendDeclarations(ctx context.Context, code string, maxMatches int) []models.DeclaredDividend
}

// ScannerClient provides multi-horizon performance and volatility figures
type ScannerClient interface {
	// GetSnapshot retrieves the scanner fields for a ticker
	// (zero-value snapshot on failure)
	GetSnapshot(ctx context.Context, code string) models.ScannerSnapshot
}

// SearchClient provides best-effort contextual web search. All methods
// return a formatted text block with a fallback sentence when the search
// is disabled or returns nothing.
type SearchClient interface {
	SearchDividendNews(ctx context.Context, symbol, companyName string) string
	SearchStockNews(ctx context.Context, symbol, companyName string) string
	SearchControversies(ctx context.Context, symbol, companyName string) string
}

// LLMClient generates free-text analysis from a prompt
type LLMClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
