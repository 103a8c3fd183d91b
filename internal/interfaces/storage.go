package interfaces

import (
	"context"

	"github.com/rcabral/pse-advisor/internal/models"
)

// ReportStore persists consolidated stock reports
type ReportStore interface {
	// Save stores a report, assigning an ID and CreatedAt if unset
	Save(ctx context.Context, report *models.StockReport) error

	// Get retrieves a report by ID (nil, nil when not found)
	Get(ctx context.Context, id string) (*models.StockReport, error)

	// ListBySymbol retrieves up to limit reports for a symbol, newest first
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.StockReport, error)

	// ListRecent retrieves up to limit reports across all symbols, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.StockReport, error)

	// Close releases the underlying database handle
	Close() error
}
