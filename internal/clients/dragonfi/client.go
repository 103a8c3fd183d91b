// Package dragonfi provides a client for the DragonFi securities API,
// the primary data source for PSE-listed equities.
package dragonfi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

const (
	DefaultBaseURL   = "https://api.dragonfi.ph/api/v2"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// SymbolNotFoundError is raised when a ticker cannot be resolved on the
// PSE via DragonFi. It carries the cleaned input for user-facing messages.
// This is the only error this client surfaces — every other failure
// degrades to an empty result.
type SymbolNotFoundError struct {
	Symbol string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol %q is not listed on the Philippine Stock Exchange", e.Symbol)
}

// Client implements the SecuritiesProfileClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	// Process-lifetime cache of all common-stock codes. Populated once
	// (even when the fetch fails — the profile fallback still works) and
	// never invalidated: listings change rarely relative to process life.
	mu          sync.Mutex
	codes       map[string]struct{}
	codesLoaded bool
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

// NewClient creates a new DragonFi client.
// No API key is required — the endpoints are public.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NormalizeSymbol returns the canonical form of a raw ticker:
// trimmed, uppercased, with any ".PS" exchange suffix stripped.
// Idempotent: NormalizeSymbol(NormalizeSymbol(x)) == NormalizeSymbol(x).
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, ".PS", "")
}

// get performs a rate-limited GET request and decodes the JSON body into
// result. A non-200 status or transport failure returns an error; callers
// absorb it into an empty value. 204/404 responses for unknown or delisted
// symbols are expected, not exceptional.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, path)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("path", path).Msg("DragonFi API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DragonFi %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// stockCodes returns the cached set of all common-stock codes, fetching it
// on first use. The result — including an empty set on fetch failure — is
// cached for the process lifetime.
func (c *Client) stockCodes(ctx context.Context) map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.codesLoaded {
		return c.codes
	}

	params := url.Values{}
	params.Set("isPreferredStock", "false")

	var list []struct {
		StockCode string `json:"stockCode"`
	}
	codes := make(map[string]struct{})
	if err := c.get(ctx, "Securities/GetStockProfileList", params, &list); err != nil {
		c.logger.Warn().Err(err).Msg("DragonFi stock list unavailable")
	} else {
		for _, item := range list {
			if item.StockCode != "" {
				codes[strings.ToUpper(item.StockCode)] = struct{}{}
			}
		}
		c.logger.Info().Int("count", len(codes)).Msg("Loaded PSE stock codes from DragonFi")
	}

	c.codes = codes
	c.codesLoaded = true
	return c.codes
}

// ValidateSymbol resolves a raw ticker to its canonical PSE stock code.
// Checks the cached code set first, then falls back to a direct profile
// lookup (covers preferred shares and newly listed tickers not yet in the
// cached list). Returns a *SymbolNotFoundError when neither path resolves.
func (c *Client) ValidateSymbol(ctx context.Context, raw string) (string, error) {
	clean := NormalizeSymbol(raw)

	if _, ok := c.stockCodes(ctx)[clean]; ok {
		return clean, nil
	}

	profile := c.GetProfile(ctx, clean)
	if profile.StockCode != "" {
		return strings.ToUpper(profile.StockCode), nil
	}

	return "", &SymbolNotFoundError{Symbol: clean}
}

// profileResponse mirrors the DragonFi GetStockProfile payload
type profileResponse struct {
	StockCode         string      `json:"stockCode"`
	CompanyName       string      `json:"companyName"`
	Price             flexFloat64 `json:"price"`
	PrevDayClosePrice flexFloat64 `json:"prevDayClosePrice"`
	WeekHigh52        flexFloat64 `json:"weekHigh52"`
	WeekLow52         flexFloat64 `json:"weekLow52"`
	DividendYield     flexFloat64 `json:"dividendYield"`
	SharesOutstanding flexFloat64 `json:"sharesOutstanding"`
	IsREIT            bool        `json:"isREIT"`
}

// GetProfile retrieves the stock profile. Returns an empty profile on any
// transport error or non-200 response.
func (c *Client) GetProfile(ctx context.Context, code string) models.StockProfile {
	params := url.Values{}
	params.Set("stockCode", NormalizeSymbol(code))

	var resp profileResponse
	if err := c.get(ctx, "Securities/GetStockProfile", params, &resp); err != nil {
		c.logger.Debug().Err(err).Str("code", code).Msg("DragonFi profile unavailable")
		return models.StockProfile{}
	}

	return models.StockProfile{
		StockCode:         resp.StockCode,
		CompanyName:       resp.CompanyName,
		Price:             float64(resp.Price),
		PrevDayClosePrice: float64(resp.PrevDayClosePrice),
		WeekHigh52:        float64(resp.WeekHigh52),
		WeekLow52:         float64(resp.WeekLow52),
		DividendYield:     float64(resp.DividendYield),
		SharesOutstanding: float64(resp.SharesOutstanding),
		IsREIT:            resp.IsREIT,
	}
}

// valuationResponse mirrors the nested GetSecurityValuation payload
type valuationResponse struct {
	AnnualValuation struct {
		PriceToEarnings map[string]flexFloat64 `json:"priceToEarnings"`
		PriceToBook     map[string]flexFloat64 `json:"priceToBook"`
	} `json:"annualValuation"`
}

// GetValuation retrieves the current annual PE/PB multiples.
// Returns zero ratios on any failure.
func (c *Client) GetValuation(ctx context.Context, code string) models.ValuationRatios {
	params := url.Values{}
	params.Set("stockCode", NormalizeSymbol(code))

	var resp valuationResponse
	if err := c.get(ctx, "Securities/GetSecurityValuation", params, &resp); err != nil {
		c.logger.Debug().Err(err).Str("code", code).Msg("DragonFi valuation unavailable")
		return models.ValuationRatios{}
	}

	return models.ValuationRatios{
		PE: float64(resp.AnnualValuation.PriceToEarnings["Current"]),
		PB: float64(resp.AnnualValuation.PriceToBook["Current"]),
	}
}

// GetMetrics retrieves the flat financial metrics payload (ROE, PEG,
// forward PE, debt ratios, ...). Non-numeric fields are dropped.
// Returns an empty map on any failure.
func (c *Client) GetMetrics(ctx context.Context, code string) map[string]float64 {
	params := url.Values{}
	params.Set("stockCode", NormalizeSymbol(code))

	var raw map[string]interface{}
	if err := c.get(ctx, "Securities/GetSecurityMetrics", params, &raw); err != nil {
		c.logger.Debug().Err(err).Str("code", code).Msg("DragonFi metrics unavailable")
		return map[string]float64{}
	}

	metrics := make(map[string]float64, len(raw))
	for k, v := range raw {
		if num, ok := v.(float64); ok {
			metrics[k] = num
		}
	}
	return metrics
}

// GetFinancialTrends retrieves annual net-income, revenue, and free-cash-flow
// series from the financial statements endpoint. Each series is filtered to
// pure 4-digit-year keys. Returns empty maps on any failure.
func (c *Client) GetFinancialTrends(ctx context.Context, code string) models.FinancialTrends {
	params := url.Values{}
	params.Set("stockCode", NormalizeSymbol(code))

	var raw map[string]interface{}
	trends := models.FinancialTrends{
		NetIncome:    map[string]float64{},
		Revenue:      map[string]float64{},
		FreeCashFlow: map[string]float64{},
	}
	if err := c.get(ctx, "Securities/GetStockFinancialStatements", params, &raw); err != nil {
		c.logger.Debug().Err(err).Str("code", code).Msg("DragonFi financial statements unavailable")
		return trends
	}

	if income, ok := raw["incomeStatement"].(map[string]interface{}); ok {
		trends.NetIncome = ExtractAnnualSeries(income["netIncome"])
		trends.Revenue = ExtractAnnualSeries(income["revenue"])
	}
	if cashflow, ok := raw["cashFlowStatement"].(map[string]interface{}); ok {
		trends.FreeCashFlow = ExtractAnnualSeries(cashflow["freeCashFlow"])
	}
	return trends
}

// ExtractAnnualSeries filters a provider series that interleaves raw yearly
// values with year-over-year change keys (both "2023" and "2023_YoY") down
// to the raw values: only keys that are purely 4-digit year strings with a
// non-null numeric value are retained. Pure parsing, no I/O.
func ExtractAnnualSeries(raw interface{}) map[string]float64 {
	series := map[string]float64{}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return series
	}
	for k, v := range m {
		if !isYearKey(k) {
			continue
		}
		if num, ok := v.(float64); ok {
			series[k] = num
		}
	}
	return series
}

func isYearKey(k string) bool {
	if len(k) != 4 {
		return false
	}
	for _, r := range k {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// newsResponse mirrors the News/GetNews payload
type newsResponse struct {
	News []newsItem `json:"news"`
}

type newsItem struct {
	Title       string `json:"title"`
	Headline    string `json:"headline"`
	Source      string `json:"source"`
	PublishDate string `json:"publishDate"`
}

// GetRecentNews retrieves up to count recent headlines, newest first.
// Returns an empty slice on any failure.
func (c *Client) GetRecentNews(ctx context.Context, code string, count int) []models.NewsHeadline {
	params := url.Values{}
	params.Set("PageNum", "1")
	params.Set("PageSize", strconv.Itoa(count))
	params.Set("isShowPortfolioNews", "false")
	params.Set("StockCode", NormalizeSymbol(code))
	params.Set("SortBy", "PublishDate")
	params.Set("Asc", "false")

	var resp newsResponse
	if err := c.get(ctx, "News/GetNews", params, &resp); err != nil {
		c.logger.Debug().Err(err).Str("code", code).Msg("DragonFi news unavailable")
		return nil
	}

	items := resp.News
	if len(items) > count {
		items = items[:count]
	}

	headlines := make([]models.NewsHeadline, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.Headline
		}
		if title == "" {
			continue
		}
		headlines = append(headlines, models.NewsHeadline{
			Title:       title,
			Source:      item.Source,
			PublishDate: item.PublishDate,
		})
	}
	return headlines
}

// Ensure Client implements SecuritiesProfileClient
var _ interfaces.SecuritiesProfileClient = (*Client)(nil)
