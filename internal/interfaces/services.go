package interfaces

import (
	"context"

	"github.com/rcabral/pse-advisor/internal/models"
)

// StockDataService produces the five per-dimension snapshots.
// Every method is total once the symbol validates: it always returns a
// fully-populated snapshot, degrading field-by-field when providers fail.
type StockDataService interface {
	ValidateSymbol(ctx context.Context, raw string) (string, error)
	Price(ctx context.Context, symbol string) models.StockSnapshot
	Dividend(ctx context.Context, symbol string) models.DividendSnapshot
	Movement(ctx context.Context, symbol string) models.MovementSnapshot
	Valuation(ctx context.Context, symbol string) models.ValuationSnapshot
	Controversy(ctx context.Context, symbol string) models.ControversySnapshot
}

// AdvisorService runs the full analysis pipeline for one symbol
type AdvisorService interface {
	// Analyze validates the symbol, gathers all snapshots, runs the
	// specialist and consolidation analyses, and returns the report.
	Analyze(ctx context.Context, symbol string) (*models.StockReport, *models.SnapshotBundle, error)

	// GatherSnapshots validates the symbol and builds the snapshot bundle
	// without running any LLM analysis.
	GatherSnapshots(ctx context.Context, symbol string) (string, *models.SnapshotBundle, error)
}
