package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcabral/pse-advisor/internal/clients/dragonfi"
	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/models"
)

// stubAdvisor is a canned AdvisorService
type stubAdvisor struct {
	report *models.StockReport
	bundle *models.SnapshotBundle
	err    error
}

func (s *stubAdvisor) Analyze(ctx context.Context, symbol string) (*models.StockReport, *models.SnapshotBundle, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.report, s.bundle, nil
}

func (s *stubAdvisor) GatherSnapshots(ctx context.Context, symbol string) (string, *models.SnapshotBundle, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return s.report.Symbol, s.bundle, nil
}

// stubStore is a canned ReportStore
type stubStore struct {
	reports map[string]*models.StockReport
	list    []*models.StockReport
}

func (s *stubStore) Save(ctx context.Context, report *models.StockReport) error { return nil }
func (s *stubStore) Get(ctx context.Context, id string) (*models.StockReport, error) {
	return s.reports[id], nil
}
func (s *stubStore) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.StockReport, error) {
	var out []*models.StockReport
	for _, r := range s.list {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *stubStore) ListRecent(ctx context.Context, limit int) ([]*models.StockReport, error) {
	return s.list, nil
}
func (s *stubStore) Close() error { return nil }

func newTestServer(advisor *stubAdvisor, store *stubStore) *Server {
	if store == nil {
		store = &stubStore{}
	}
	return NewServer(advisor, store, common.NewDefaultConfig(), common.NewSilentLogger())
}

func sampleReport() *models.StockReport {
	return &models.StockReport{
		ID:        "r-1",
		Symbol:    "CREIT",
		Verdict:   models.VerdictBuy,
		Summary:   "Executive summary.",
		CreatedAt: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&stubAdvisor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleAnalyze(t *testing.T) {
	advisor := &stubAdvisor{
		report: sampleReport(),
		bundle: &models.SnapshotBundle{Price: models.StockSnapshot{Symbol: "CREIT", CurrentPrice: 2.85}},
	}
	srv := newTestServer(advisor, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"symbol":"creit.ps"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Report    *models.StockReport    `json:"report"`
		Snapshots *models.SnapshotBundle `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CREIT", resp.Report.Symbol)
	assert.Equal(t, models.VerdictBuy, resp.Report.Verdict)
	assert.Equal(t, 2.85, resp.Snapshots.Price.CurrentPrice)
}

func TestHandleAnalyze_UnknownSymbol(t *testing.T) {
	advisor := &stubAdvisor{err: &dragonfi.SymbolNotFoundError{Symbol: "ZZZZ"}}
	srv := newTestServer(advisor, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"symbol":"zzzz.ps"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// the 404 names the cleaned symbol
	assert.Contains(t, body.Error, "ZZZZ")
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	srv := newTestServer(&stubAdvisor{report: sampleReport()}, nil)

	// missing symbol
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// wrong method
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// invalid JSON
	req = httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSnapshots(t *testing.T) {
	advisor := &stubAdvisor{
		report: sampleReport(),
		bundle: &models.SnapshotBundle{Movement: models.MovementSnapshot{Symbol: "CREIT", Trend: models.TrendUp}},
	}
	srv := newTestServer(advisor, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots?symbol=creit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Symbol    string                 `json:"symbol"`
		Snapshots *models.SnapshotBundle `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CREIT", resp.Symbol)
	assert.Equal(t, models.TrendUp, resp.Snapshots.Movement.Trend)
}

func TestHandleReportByID(t *testing.T) {
	store := &stubStore{reports: map[string]*models.StockReport{"r-1": sampleReport()}}
	srv := newTestServer(&stubAdvisor{}, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/r-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var report models.StockReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "CREIT", report.Symbol)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReportList(t *testing.T) {
	store := &stubStore{list: []*models.StockReport{sampleReport()}}
	srv := newTestServer(&stubAdvisor{}, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports?symbol=creit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Reports []*models.StockReport `json:"reports"`
		Count   int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "CREIT", resp.Reports[0].Symbol)
}

func TestHandleReportList_EmptyIsArray(t *testing.T) {
	srv := newTestServer(&stubAdvisor{}, &stubStore{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reports":[]`)
}
