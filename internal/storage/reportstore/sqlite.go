// Package reportstore persists consolidated stock reports in SQLite.
// The driver is pure Go (modernc.org/sqlite), so no cgo toolchain is
// needed to build or deploy.
package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

// Store implements the ReportStore interface on a SQLite database
type Store struct {
	db     *sql.DB
	logger *common.Logger

	// the sqlite driver serializes writes internally, but wrapping writes
	// in a mutex keeps SQLITE_BUSY out of the picture entirely
	mu sync.Mutex
}

// New opens (and if needed creates) the database at path and runs
// migrations.
func New(path string, logger *common.Logger) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Report store ready")
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS reports (
		id                  TEXT PRIMARY KEY,
		symbol              TEXT NOT NULL,
		verdict             TEXT NOT NULL,
		summary             TEXT NOT NULL,
		price_section       TEXT NOT NULL DEFAULT '',
		dividend_section    TEXT NOT NULL DEFAULT '',
		movement_section    TEXT NOT NULL DEFAULT '',
		valuation_section   TEXT NOT NULL DEFAULT '',
		controversy_section TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_symbol_created
		ON reports(symbol, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_reports_created
		ON reports(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Save stores a report, assigning an ID and CreatedAt if unset
func (s *Store) Save(ctx context.Context, report *models.StockReport) error {
	if report == nil {
		return errors.New("nil report")
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports
			(id, symbol, verdict, summary, price_section, dividend_section,
			 movement_section, valuation_section, controversy_section, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Symbol, string(report.Verdict), report.Summary,
		report.PriceSection, report.DividendSection, report.MovementSection,
		report.ValuationSection, report.ControversySection,
		report.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

const selectColumns = `id, symbol, verdict, summary, price_section, dividend_section,
	movement_section, valuation_section, controversy_section, created_at`

// Get retrieves a report by ID (nil, nil when not found)
func (s *Store) Get(ctx context.Context, id string) (*models.StockReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM reports WHERE id = ?`, id)

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return report, nil
}

// ListBySymbol retrieves up to limit reports for a symbol, newest first
func (s *Store) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.StockReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM reports WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`,
		symbol, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for %s: %w", symbol, err)
	}
	defer rows.Close()
	return collectReports(rows)
}

// ListRecent retrieves up to limit reports across all symbols, newest first
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*models.StockReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM reports ORDER BY created_at DESC LIMIT ?`,
		normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()
	return collectReports(rows)
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.StockReport, error) {
	var report models.StockReport
	var verdict, createdAt string

	err := row.Scan(&report.ID, &report.Symbol, &verdict, &report.Summary,
		&report.PriceSection, &report.DividendSection, &report.MovementSection,
		&report.ValuationSection, &report.ControversySection, &createdAt)
	if err != nil {
		return nil, err
	}

	report.Verdict = models.Verdict(verdict)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		report.CreatedAt = ts
	}
	return &report, nil
}

func collectReports(rows *sql.Rows) ([]*models.StockReport, error) {
	var reports []*models.StockReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

var _ interfaces.ReportStore = (*Store)(nil)
