// Package pseedge scrapes daily OHLCV history and dividend disclosures
// from the PSE EDGE portal. EDGE has no public API; the client drives the
// same endpoints the portal's own chart widget uses.
package pseedge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

const (
	DefaultBaseURL   = "https://edge.pse.com.ph"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5

	// chartDateLayout parses EDGE chart timestamps ("Jan 02, 2026 00:00:00")
	chartDateLayout = "Jan 02, 2006 15:04:05"
	// requestDateLayout formats chart request dates ("08-26-2026")
	requestDateLayout = "01-02-2006"
)

// idPair identifies a listed security on EDGE: every chart request needs
// both the company and security identifiers.
type idPair struct {
	companyID  string
	securityID string
}

// Client implements the OHLCVClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	// Resolved id pairs are cached for the process lifetime, including
	// failed resolutions (cached as the zero pair) so a bad symbol does
	// not trigger repeated autocomplete round-trips.
	mu    sync.Mutex
	pairs map[string]idPair
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new PSE EDGE client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		pairs:   make(map[string]idPair),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doGet performs a rate-limited GET and returns the response body.
// EDGE rejects requests without the XMLHttpRequest header.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PSE EDGE %s returned status %d", path, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// resolveIDs resolves a stock symbol to its EDGE company/security id pair.
// Two round-trips: the autocomplete endpoint for the company id, then the
// company page for the first security id. Results (including failures) are
// cached for the process lifetime.
func (c *Client) resolveIDs(ctx context.Context, symbol string) idPair {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	c.mu.Lock()
	if pair, ok := c.pairs[symbol]; ok {
		c.mu.Unlock()
		return pair
	}
	c.mu.Unlock()

	pair := c.lookupIDs(ctx, symbol)

	c.mu.Lock()
	c.pairs[symbol] = pair
	c.mu.Unlock()

	return pair
}

func (c *Client) lookupIDs(ctx context.Context, symbol string) idPair {
	params := url.Values{}
	params.Set("term", symbol)

	body, err := c.doGet(ctx, "/autoComplete/searchCompanyNameSymbol.ax", params)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("EDGE autocomplete failed")
		return idPair{}
	}

	var matches []struct {
		CmpyID    json.Number `json:"cmpyId"`
		CmpyNm    string      `json:"cmpyNm"`
		SymbolVal string      `json:"symbolValue"`
	}
	if err := json.Unmarshal(body, &matches); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("EDGE autocomplete returned unexpected payload")
		return idPair{}
	}

	var companyID string
	for _, m := range matches {
		if strings.EqualFold(strings.TrimSpace(m.SymbolVal), symbol) {
			companyID = m.CmpyID.String()
			break
		}
	}
	if companyID == "" {
		c.logger.Debug().Str("symbol", symbol).Msg("Symbol not found on EDGE")
		return idPair{}
	}

	pageParams := url.Values{}
	pageParams.Set("cmpy_id", companyID)
	page, err := c.doGet(ctx, "/companyPage/stockData.do", pageParams)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("EDGE company page failed")
		return idPair{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("EDGE company page is not parseable HTML")
		return idPair{}
	}

	securityID, _ := doc.Find(`select[name="security_id"] option`).First().Attr("value")
	if securityID == "" {
		c.logger.Debug().Str("symbol", symbol).Msg("No security id on EDGE company page")
		return idPair{}
	}

	return idPair{companyID: companyID, securityID: securityID}
}

// chartRow mirrors one entry of the DisclosureCht chartData array
type chartRow struct {
	Open      float64 `json:"OPEN"`
	High      float64 `json:"HIGH"`
	Low       float64 `json:"LOW"`
	Close     float64 `json:"CLOSE"`
	Value     float64 `json:"VALUE"`
	ChartDate string  `json:"CHART_DATE"`
}

// GetOHLCV retrieves daily bars covering the last days calendar days,
// ordered ascending by date. Duplicate dates (EDGE occasionally repeats
// the latest session) are collapsed to the first occurrence. Returns an
// empty slice — never an error — when anything fails.
func (c *Client) GetOHLCV(ctx context.Context, code string, days int) []models.OHLCVBar {
	pair := c.resolveIDs(ctx, code)
	if pair.securityID == "" {
		return nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	payload, err := json.Marshal(map[string]string{
		"cmpy_id":     pair.companyID,
		"security_id": pair.securityID,
		"startDate":   start.Format(requestDateLayout),
		"endDate":     end.Format(requestDateLayout),
	})
	if err != nil {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/common/DisclosureCht.ax", bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/companyPage/stockData.do?cmpy_id="+pair.companyID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", code).Msg("EDGE chart request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("symbol", code).Msg("EDGE chart request rejected")
		return nil
	}

	var chart struct {
		ChartData []chartRow `json:"chartData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		c.logger.Warn().Err(err).Str("symbol", code).Msg("EDGE chart payload not parseable")
		return nil
	}

	seen := make(map[string]struct{}, len(chart.ChartData))
	bars := make([]models.OHLCVBar, 0, len(chart.ChartData))
	for _, row := range chart.ChartData {
		if _, dup := seen[row.ChartDate]; dup {
			continue
		}
		seen[row.ChartDate] = struct{}{}

		date, err := time.Parse(chartDateLayout, row.ChartDate)
		if err != nil {
			c.logger.Debug().Str("date", row.ChartDate).Msg("Dropping bar with unparseable date")
			continue
		}

		bars = append(bars, models.OHLCVBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Value,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.Debug().Str("symbol", code).Int("bars", len(bars)).Msg("Fetched OHLCV history from EDGE")
	return bars
}

// doPostForm performs a rate-limited form POST and returns the body
func (c *Client) doPostForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PSE EDGE %s returned status %d", path, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

var _ interfaces.OHLCVClient = (*Client)(nil)
