package agents

import (
	"context"
	"regexp"

	"github.com/rcabral/pse-advisor/internal/models"
)

// summaryUnavailable replaces the consolidated summary when the final LLM
// pass fails. The verdict defaults to NOT BUY: no analysis, no purchase.
const summaryUnavailable = "Consolidated analysis unavailable."

var (
	// reVerdictLine matches an explicit verdict marker, optionally bolded
	// ("**Verdict: NOT BUY**", "Verdict BUY"). NOT BUY is listed first so
	// the alternation cannot truncate it to BUY.
	reVerdictLine = regexp.MustCompile(`(?i)\*{0,2}Verdict:?\*{0,2}\s*(NOT\s+BUY|BUY)`)

	reNotBuy = regexp.MustCompile(`(?i)\bNOT\s+BUY\b`)
	reBuy    = regexp.MustCompile(`(?i)\bBUY\b`)
)

// Consolidate merges the specialist sections into the final summary and
// verdict. A failed LLM call degrades to a placeholder summary with a
// conservative NOT BUY.
func (r *Runner) Consolidate(ctx context.Context, symbol string, sections []Section) (string, models.Verdict) {
	text, err := r.llm.GenerateContent(ctx, buildConsolidationPrompt(symbol, sections))
	if err != nil {
		r.logger.Warn().Err(err).Str("symbol", symbol).Msg("Consolidation failed")
		return summaryUnavailable, models.VerdictNotBuy
	}
	return text, ExtractVerdict(text)
}

// ExtractVerdict parses the verdict from consolidated report text.
// Resolution order:
//  1. An explicit "Verdict:" marker wins outright.
//  2. Otherwise the last BUY/NOT BUY mention decides; a trailing BUY that
//     is merely the tail of a NOT BUY does not count as standalone.
//  3. No mention at all defaults to NOT BUY.
func ExtractVerdict(text string) models.Verdict {
	if m := reVerdictLine.FindStringSubmatch(text); m != nil {
		if reNotBuy.MatchString(m[1]) {
			return models.VerdictNotBuy
		}
		return models.VerdictBuy
	}

	notBuyLocs := reNotBuy.FindAllStringIndex(text, -1)
	buyLocs := reBuy.FindAllStringIndex(text, -1)

	if len(buyLocs) == 0 {
		return models.VerdictNotBuy
	}
	if len(notBuyLocs) == 0 {
		return models.VerdictBuy
	}

	lastBuy := buyLocs[len(buyLocs)-1]
	lastNotBuy := notBuyLocs[len(notBuyLocs)-1]

	// the last BUY lies inside the last NOT BUY span: not standalone
	if lastBuy[0] >= lastNotBuy[0] && lastBuy[1] <= lastNotBuy[1] {
		return models.VerdictNotBuy
	}
	if lastBuy[0] > lastNotBuy[1] {
		return models.VerdictBuy
	}
	return models.VerdictNotBuy
}
