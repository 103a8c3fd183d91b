// Package advisor orchestrates the full analysis pipeline: symbol
// validation, snapshot gathering, specialist analyses, consolidation,
// and report persistence.
package advisor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rcabral/pse-advisor/internal/agents"
	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

// Service implements the AdvisorService interface
type Service struct {
	data   interfaces.StockDataService
	runner *agents.Runner
	store  interfaces.ReportStore
	logger *common.Logger
}

// NewService creates a new advisor service. The store may be nil, in
// which case reports are returned but not persisted.
func NewService(data interfaces.StockDataService, runner *agents.Runner, store interfaces.ReportStore, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{data: data, runner: runner, store: store, logger: logger}
}

// GatherSnapshots validates the symbol and builds the five snapshots
// concurrently. The services share no mutable state beyond their clients'
// guarded caches, so the fan-out is safe. The only error that can escape
// is the symbol validation failure.
func (s *Service) GatherSnapshots(ctx context.Context, raw string) (string, *models.SnapshotBundle, error) {
	symbol, err := s.data.ValidateSymbol(ctx, raw)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("symbol", symbol).Msg("Gathering stock data")

	bundle := &models.SnapshotBundle{}
	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); bundle.Price = s.data.Price(ctx, symbol) }()
	go func() { defer wg.Done(); bundle.Dividend = s.data.Dividend(ctx, symbol) }()
	go func() { defer wg.Done(); bundle.Movement = s.data.Movement(ctx, symbol) }()
	go func() { defer wg.Done(); bundle.Valuation = s.data.Valuation(ctx, symbol) }()
	go func() { defer wg.Done(); bundle.Controversy = s.data.Controversy(ctx, symbol) }()
	wg.Wait()

	return symbol, bundle, nil
}

// Analyze runs the full pipeline for one symbol and persists the report
func (s *Service) Analyze(ctx context.Context, raw string) (*models.StockReport, *models.SnapshotBundle, error) {
	symbol, bundle, err := s.GatherSnapshots(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	sections := s.runner.RunSpecialists(ctx, symbol, bundle)
	summary, verdict := s.runner.Consolidate(ctx, symbol, sections)

	report := &models.StockReport{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Verdict:   verdict,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	for _, section := range sections {
		switch section.Title {
		case "Price":
			report.PriceSection = section.Text
		case "Dividend":
			report.DividendSection = section.Text
		case "Movement":
			report.MovementSection = section.Text
		case "Valuation":
			report.ValuationSection = section.Text
		case "Controversy":
			report.ControversySection = section.Text
		}
	}

	if s.store != nil {
		if err := s.store.Save(ctx, report); err != nil {
			// a storage fault should not cost the caller their report
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist report")
		}
	}

	s.logger.Info().Str("symbol", symbol).Str("verdict", string(report.Verdict)).Msg("Analysis complete")
	return report, bundle, nil
}

var _ interfaces.AdvisorService = (*Service)(nil)
