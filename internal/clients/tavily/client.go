// Package tavily provides best-effort web search via the Tavily API.
// Search is strictly supplemental: a missing API key disables it, and
// every failure degrades to a fallback sentence rather than an error.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

const (
	DefaultBaseURL = "https://api.tavily.com"
	DefaultTimeout = 20 * time.Second

	// apiKeyEnv is read at call time, not construction time, so keys
	// loaded late (dotenv and friends) still take effect.
	apiKeyEnv = "TAVILY_API_KEY"

	maxSnippetLen = 300
)

// Fallback sentences returned when search is disabled or empty. Callers
// detect the no-result case by the "No " prefix.
const (
	noDividendNews = "No recent dividend news found via web search."
	noStockNews    = "No recent news found via web search."
	noControversy  = "No controversies found via web search."
)

// Client implements the SearchClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
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

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Tavily search client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// searchRequest is the Tavily search payload
type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

// searchResponse mirrors the Tavily result envelope
type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// search runs one query. Returns nil when the key is absent or anything
// fails upstream.
func (c *Client) search(ctx context.Context, query string, maxResults int) []models.SearchResult {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		c.logger.Debug().Msg("Tavily search disabled: no API key")
		return nil
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:      apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Tavily search request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Tavily search rejected request")
		return nil
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		c.logger.Warn().Err(err).Msg("Tavily search payload not parseable")
		return nil
	}

	results := make([]models.SearchResult, 0, len(sr.Results))
	for _, r := range sr.Results {
		results = append(results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return results
}

// subject renders "SYM (Company Name)" or just "SYM" for query building
func subject(symbol, companyName string) string {
	if companyName != "" {
		return fmt.Sprintf("%s (%s)", symbol, companyName)
	}
	return symbol
}

// formatResults renders search hits as an indented bullet list
func formatResults(results []models.SearchResult) string {
	var lines []string
	for _, r := range results {
		lines = append(lines, "• "+r.Title)
		if r.Content != "" {
			snippet := r.Content
			if len(snippet) > maxSnippetLen {
				snippet = snippet[:maxSnippetLen]
			}
			lines = append(lines, "  "+snippet)
		}
		if r.URL != "" {
			lines = append(lines, "  Source: "+r.URL)
		}
	}
	return strings.Join(lines, "\n")
}

// SearchDividendNews looks for recent dividend announcements
func (c *Client) SearchDividendNews(ctx context.Context, symbol, companyName string) string {
	year := time.Now().Year()
	query := fmt.Sprintf("%s Philippine stock dividend announcement declaration ex-date %d OR %d",
		subject(symbol, companyName), year, year+1)

	results := c.search(ctx, query, 5)
	if len(results) == 0 {
		return noDividendNews
	}
	return formatResults(results)
}

// SearchStockNews looks for recent general news about the stock
func (c *Client) SearchStockNews(ctx context.Context, symbol, companyName string) string {
	year := time.Now().Year()
	query := fmt.Sprintf("%s Philippine stock PSE latest news %d OR %d",
		subject(symbol, companyName), year, year+1)

	results := c.search(ctx, query, 5)
	if len(results) == 0 {
		return noStockNews
	}
	return formatResults(results)
}

// SearchControversies looks for regulatory and governance red flags
func (c *Client) SearchControversies(ctx context.Context, symbol, companyName string) string {
	query := fmt.Sprintf("%s Philippine stock controversy risk issue SEC regulatory concern",
		subject(symbol, companyName))

	results := c.search(ctx, query, 3)
	if len(results) == 0 {
		return noControversy
	}
	return formatResults(results)
}

var _ interfaces.SearchClient = (*Client)(nil)
