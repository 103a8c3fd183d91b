package tradingview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcabral/pse-advisor/internal/models"
)

func TestGetSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Symbols struct {
				Tickers []string `json:"tickers"`
			} `json:"symbols"`
			Columns []string `json:"columns"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"PSE:JFC"}, req.Symbols.Tickers)
		require.Len(t, req.Columns, 16)
		require.Equal(t, "close", req.Columns[0])
		require.Equal(t, "price_52_week_low", req.Columns[15])

		// Perf.3M is null upstream
		w.Write([]byte(`{"data":[{"s":"PSE:JFC","d":[
			254.0, 251.0, 255.0, 250.0, 1200000,
			1.2, -3.4, null, 8.9, 15.2, 11.0,
			1.1, 2.3, 4.6,
			280.0, 198.0
		]}]}`))
	}))
	defer server.Close()

	client := NewClient(WithScannerURL(server.URL))
	snap := client.GetSnapshot(context.Background(), "jfc")

	assert.Equal(t, 254.0, snap.Close)
	assert.Equal(t, 251.0, snap.Open)
	assert.Equal(t, 1.2, snap.PerfWeek)
	assert.Equal(t, -3.4, snap.Perf1M)
	// null normalized to zero
	assert.Equal(t, 0.0, snap.Perf3M)
	assert.Equal(t, 15.2, snap.PerfYear)
	assert.Equal(t, 4.6, snap.VolatilityMonthly)
	assert.Equal(t, 280.0, snap.WeekHigh52)
	assert.Equal(t, 198.0, snap.WeekLow52)
	assert.False(t, snap.IsEmpty())
}

func TestGetSnapshot_NoRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(WithScannerURL(server.URL))
	snap := client.GetSnapshot(context.Background(), "ZZZZ")
	assert.True(t, snap.IsEmpty())
}

func TestGetSnapshot_ServerDown(t *testing.T) {
	client := NewClient(WithScannerURL("http://127.0.0.1:1"))
	snap := client.GetSnapshot(context.Background(), "JFC")
	assert.True(t, snap.IsEmpty())
}

func TestFormatPerformanceSummary(t *testing.T) {
	snap := models.ScannerSnapshot{
		PerfWeek:          1.25,
		Perf1M:            -3.4,
		PerfYear:          15.26,
		VolatilityMonthly: 4.61,
	}
	got := FormatPerformanceSummary(snap)
	assert.Equal(t, "1-week: +1.2%, 1-month: -3.4%, 1-year: +15.3%, monthly volatility: 4.6%", got)
}

func TestFormatPerformanceSummary_ZeroHorizonsOmitted(t *testing.T) {
	// a genuinely flat horizon is indistinguishable from missing data and
	// is therefore omitted from the summary
	snap := models.ScannerSnapshot{
		Close:             10.0,
		Perf3M:            0.0,
		PerfYear:          7.5,
		VolatilityMonthly: 2.0,
	}
	got := FormatPerformanceSummary(snap)
	assert.NotContains(t, got, "3-month")
	assert.Contains(t, got, "1-year: +7.5%")
	assert.Contains(t, got, "monthly volatility: 2.0%")
}

func TestFormatPerformanceSummary_ZeroVolatilityOmitted(t *testing.T) {
	snap := models.ScannerSnapshot{
		Close:    10.0,
		PerfYear: 7.5,
	}
	got := FormatPerformanceSummary(snap)
	assert.Equal(t, "1-year: +7.5%", got)
	assert.NotContains(t, got, "monthly volatility")
}

func TestFormatPerformanceSummary_Empty(t *testing.T) {
	assert.Equal(t, "", FormatPerformanceSummary(models.ScannerSnapshot{}))
}
