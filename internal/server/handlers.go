package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rcabral/pse-advisor/internal/clients/dragonfi"
	"github.com/rcabral/pse-advisor/internal/models"
)

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": s.config.Environment,
	})
}

// analyzeRequest is the POST /api/analyze payload
type analyzeRequest struct {
	Symbol string `json:"symbol"`
}

// analyzeResponse bundles the report with the raw snapshots behind it
type analyzeResponse struct {
	Report    *models.StockReport    `json:"report"`
	Snapshots *models.SnapshotBundle `json:"snapshots"`
}

// handleAnalyze handles POST /api/analyze: the full pipeline including
// the LLM passes.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyzeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	report, snapshots, err := s.advisor.Analyze(r.Context(), req.Symbol)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, analyzeResponse{Report: report, Snapshots: snapshots})
}

// handleSnapshots handles GET /api/snapshots?symbol=: the data layer only,
// no LLM involvement.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	resolved, snapshots, err := s.advisor.GatherSnapshots(r.Context(), symbol)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    resolved,
		"snapshots": snapshots,
	})
}

// writeAnalysisError maps pipeline errors onto HTTP statuses. An unknown
// ticker is the caller's mistake (404, naming the cleaned symbol);
// anything else is a server-side fault.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var notFound *dragonfi.SymbolNotFoundError
	if errors.As(err, &notFound) {
		WriteError(w, http.StatusNotFound, notFound.Error())
		return
	}
	s.logger.Error().Err(err).Msg("Analysis failed")
	WriteError(w, http.StatusInternalServerError, "Analysis failed")
}

// handleReportByID handles GET /api/reports/{id}
func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := PathParam(r, "/api/reports/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "report id is required")
		return
	}

	report, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to load report")
		WriteError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	if report == nil {
		WriteError(w, http.StatusNotFound, "Report not found")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// handleReportList handles GET /api/reports?symbol=&limit=
func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var reports []*models.StockReport
	var err error
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		reports, err = s.store.ListBySymbol(r.Context(), dragonfi.NormalizeSymbol(symbol), limit)
	} else {
		reports, err = s.store.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list reports")
		WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	if reports == nil {
		reports = []*models.StockReport{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}
