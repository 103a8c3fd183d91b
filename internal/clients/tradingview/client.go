// Package tradingview queries the TradingView Philippines scanner for
// multi-horizon performance and volatility figures. It is the fallback
// source when PSE EDGE history is unavailable.
package tradingview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

const (
	DefaultScannerURL = "https://scanner.tradingview.com/philippines/scan"
	DefaultTimeout    = 15 * time.Second
)

// scannerColumns is the ordered column list sent to the scanner. The
// response carries values positionally, so this slice and the pointer
// targets in GetSnapshot must stay in lockstep.
var scannerColumns = []string{
	"close", "open", "high", "low", "volume",
	"Perf.W", "Perf.1M", "Perf.3M", "Perf.6M", "Perf.Y", "Perf.YTD",
	"Volatility.D", "Volatility.W", "Volatility.M",
	"price_52_week_high", "price_52_week_low",
}

// Client implements the ScannerClient interface
type Client struct {
	scannerURL string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithScannerURL sets the scanner endpoint
func WithScannerURL(url string) ClientOption {
	return func(c *Client) {
		c.scannerURL = url
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new TradingView scanner client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		scannerURL: DefaultScannerURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// scanRequest is the scanner query payload
type scanRequest struct {
	Symbols struct {
		Tickers []string `json:"tickers"`
	} `json:"symbols"`
	Columns []string `json:"columns"`
}

// scanResponse mirrors the scanner result envelope. Values arrive as a
// positional array matching the requested columns; nulls mean no data.
type scanResponse struct {
	Data []struct {
		Symbol string     `json:"s"`
		Values []*float64 `json:"d"`
	} `json:"data"`
}

// GetSnapshot retrieves the scanner fields for a PSE ticker. Null columns
// are normalized to 0.0. Returns a zero-value snapshot on any failure.
func (c *Client) GetSnapshot(ctx context.Context, code string) models.ScannerSnapshot {
	var req scanRequest
	req.Symbols.Tickers = []string{"PSE:" + strings.ToUpper(strings.TrimSpace(code))}
	req.Columns = scannerColumns

	payload, err := json.Marshal(req)
	if err != nil {
		return models.ScannerSnapshot{}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scannerURL, bytes.NewReader(payload))
	if err != nil {
		return models.ScannerSnapshot{}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", code).Msg("TradingView scanner request failed")
		return models.ScannerSnapshot{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("symbol", code).Msg("TradingView scanner rejected request")
		return models.ScannerSnapshot{}
	}

	var scan scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&scan); err != nil {
		c.logger.Warn().Err(err).Str("symbol", code).Msg("TradingView scanner payload not parseable")
		return models.ScannerSnapshot{}
	}

	if len(scan.Data) == 0 {
		c.logger.Debug().Str("symbol", code).Msg("TradingView scanner returned no rows")
		return models.ScannerSnapshot{}
	}

	values := scan.Data[0].Values
	var snapshot models.ScannerSnapshot

	// targets mirror scannerColumns positionally
	targets := []*float64{
		&snapshot.Close, &snapshot.Open, &snapshot.High, &snapshot.Low, &snapshot.Volume,
		&snapshot.PerfWeek, &snapshot.Perf1M, &snapshot.Perf3M, &snapshot.Perf6M, &snapshot.PerfYear, &snapshot.PerfYTD,
		&snapshot.VolatilityDaily, &snapshot.VolatilityWeekly, &snapshot.VolatilityMonthly,
		&snapshot.WeekHigh52, &snapshot.WeekLow52,
	}
	for i, target := range targets {
		if i < len(values) && values[i] != nil {
			*target = *values[i]
		}
	}

	return snapshot
}

// FormatPerformanceSummary renders the snapshot's non-zero performance
// figures as a one-line summary for report text. Zero values are omitted:
// upstream nulls are normalized to zero, so a zero reading cannot be told
// apart from missing data and is treated as missing.
func FormatPerformanceSummary(s models.ScannerSnapshot) string {
	if s.IsEmpty() {
		return ""
	}

	horizons := []struct {
		label string
		value float64
	}{
		{"1-week", s.PerfWeek},
		{"1-month", s.Perf1M},
		{"3-month", s.Perf3M},
		{"6-month", s.Perf6M},
		{"1-year", s.PerfYear},
		{"YTD", s.PerfYTD},
	}

	var parts []string
	for _, h := range horizons {
		if h.value != 0 {
			parts = append(parts, fmt.Sprintf("%s: %+.1f%%", h.label, h.value))
		}
	}
	if s.VolatilityMonthly != 0 {
		parts = append(parts, fmt.Sprintf("monthly volatility: %.1f%%", s.VolatilityMonthly))
	}

	return strings.Join(parts, ", ")
}

var _ interfaces.ScannerClient = (*Client)(nil)
