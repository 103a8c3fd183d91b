package pseedge

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/rcabral/pse-advisor/internal/models"
)

// Cash-dividend declarations are filed on EDGE as PSE Disclosure Form 6-1.
// The scraper walks the disclosure search results newest-first, opens each
// filing's HTML attachment, and extracts the dividend terms with regular
// expressions over the flattened text. The form layout is a legacy table
// dump with no stable markup, so text-level regexes are the reliable path.
var (
	reDisclosureRow = regexp.MustCompile(`openPopup\('([^']+)'\)`)
	reRowDate       = regexp.MustCompile(`[A-Za-z]{3}\s+\d{1,2},\s*\d{4}`)
	reFileID        = regexp.MustCompile(`/downloadHtml\.do\?file_id=(\d+)`)
	reTags          = regexp.MustCompile(`<[^>]+>`)
	reWhitespace    = regexp.MustCompile(`\s+`)

	reFormSymbol  = regexp.MustCompile(`([A-Z0-9]{2,10})\s+PSE\s+Disclosure\s+Form\s+6-1`)
	reFormAmount  = regexp.MustCompile(`(?i)Amount of Cash Dividend Per Share\s*[:\s]*((?:P(?:hp)?|PHP|₱)?\s*[\d,.]+)`)
	reFormExDate  = regexp.MustCompile(`Ex-Date\s*:\s*([A-Za-z]{3}\s+\d{1,2},\s*\d{4})`)
	reFormRecDate = regexp.MustCompile(`Record Date\s*([A-Za-z]{3}\s+\d{1,2},\s*\d{4})`)
	reFormPayDate = regexp.MustCompile(`Payment Date\s*([A-Za-z]{3}\s+\d{1,2},\s*\d{4})`)
)

// maxDisclosuresScanned bounds how many recent filings are opened per call.
// The search returns declarations for every listed company; only a fraction
// belong to the requested symbol.
const maxDisclosuresScanned = 50

// GetRecentDividendDeclarations scrapes recent Form 6-1 cash-dividend
// filings for the symbol, newest first, stopping after maxMatches hits.
// Returns an empty slice on any failure.
func (c *Client) GetRecentDividendDeclarations(ctx context.Context, code string, maxMatches int) []models.DeclaredDividend {
	symbol := strings.ToUpper(strings.TrimSpace(code))
	if maxMatches <= 0 {
		maxMatches = 3
	}

	form := url.Values{}
	form.Set("keyword", "")
	form.Set("tmplNm", "Declaration of Cash Dividends")
	form.Set("sortType", "date")

	body, err := c.doPostForm(ctx, "/companyDisclosures/search.ax", form)
	if err != nil {
		c.logger.Warn().Err(err).Msg("EDGE disclosure search failed")
		return nil
	}

	ids, dates := parseDisclosureRows(string(body))

	var declarations []models.DeclaredDividend
	for i, edgeNo := range ids {
		if i >= maxDisclosuresScanned || len(declarations) >= maxMatches {
			break
		}

		decl, ok := c.fetchDeclaration(ctx, edgeNo)
		if !ok || decl.Symbol != symbol {
			continue
		}
		if i < len(dates) {
			decl.AnnounceDate = dates[i]
		}
		declarations = append(declarations, decl)
	}

	c.logger.Debug().Str("symbol", symbol).Int("found", len(declarations)).Msg("Scanned EDGE dividend disclosures")
	return declarations
}

// parseDisclosureRows extracts the disclosure ids and their announce dates
// from the search-result markup, preserving order (newest first).
func parseDisclosureRows(html string) (ids, dates []string) {
	rows := strings.Split(html, "<tr")
	for _, row := range rows {
		m := reDisclosureRow.FindStringSubmatch(row)
		if m == nil {
			continue
		}
		ids = append(ids, m[1])
		dates = append(dates, reRowDate.FindString(row))
	}
	return ids, dates
}

// fetchDeclaration opens one disclosure viewer page, follows the HTML
// attachment link, and parses the Form 6-1 fields.
func (c *Client) fetchDeclaration(ctx context.Context, edgeNo string) (models.DeclaredDividend, bool) {
	params := url.Values{}
	params.Set("edge_no", edgeNo)
	viewer, err := c.doGet(ctx, "/openDiscViewer.do", params)
	if err != nil {
		return models.DeclaredDividend{}, false
	}

	fileMatch := reFileID.FindSubmatch(viewer)
	if fileMatch == nil {
		return models.DeclaredDividend{}, false
	}

	fileParams := url.Values{}
	fileParams.Set("file_id", string(fileMatch[1]))
	doc, err := c.doGet(ctx, "/downloadHtml.do", fileParams)
	if err != nil {
		return models.DeclaredDividend{}, false
	}

	return parseForm61(string(doc))
}

// parseForm61 extracts the dividend terms from a Form 6-1 HTML document.
// The markup is flattened to plain text first; every field is optional
// except the symbol.
func parseForm61(html string) (models.DeclaredDividend, bool) {
	text := reWhitespace.ReplaceAllString(reTags.ReplaceAllString(html, " "), " ")

	symMatch := reFormSymbol.FindStringSubmatch(text)
	if symMatch == nil {
		return models.DeclaredDividend{}, false
	}

	decl := models.DeclaredDividend{Symbol: symMatch[1]}

	if m := reFormAmount.FindStringSubmatch(text); m != nil {
		decl.AmountPerShare = strings.TrimSpace(m[1])
	}
	if m := reFormExDate.FindStringSubmatch(text); m != nil {
		decl.ExDate = m[1]
	}
	if m := reFormRecDate.FindStringSubmatch(text); m != nil {
		decl.RecordDate = m[1]
	}
	if m := reFormPayDate.FindStringSubmatch(text); m != nil {
		decl.PaymentDate = m[1]
	}

	return decl, true
}
