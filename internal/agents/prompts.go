// Package agents runs the LLM analysis pipeline: five specialist
// analyses, one per data dimension, followed by a consolidation pass that
// issues the final verdict.
package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// specialistPromptTemplate frames one dimension-focused analysis. The
// specialists deliberately do not issue verdicts; only the consolidator
// makes the final call.
const specialistPromptTemplate = `You are a Philippine stock market analyst specialising in %s.

Analyze the following data for %s and write a focused assessment in 3-5 sentences.
Ground every claim in the data provided; if a figure is missing or zero, say the data is unavailable rather than guessing.
Do NOT give a buy/not-buy verdict yet.

Data:
%s`

// consolidationPromptTemplate merges the specialist sections into the
// final report. The verdict line format is load-bearing: the extractor
// parses it.
const consolidationPromptTemplate = `You are the lead analyst of a Philippine stock advisory desk.
Five specialists have assessed %s. Consolidate their findings into a final investment report with:

1. A short executive summary (2-3 sentences).
2. One paragraph per dimension: price, dividend, movement, valuation, controversy.
3. A final line of the exact form "**Verdict: BUY**" or "**Verdict: NOT BUY**", followed by a one-sentence justification.

Be decisive: weigh income, valuation, momentum, and risk together, and lean conservative when the evidence conflicts.

Specialist findings:

%s`

// buildSpecialistPrompt renders one specialist prompt with its snapshot
// serialized as indented JSON.
func buildSpecialistPrompt(focus, symbol string, snapshot interface{}) string {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf(specialistPromptTemplate, focus, symbol, string(data))
}

// buildConsolidationPrompt renders the consolidation prompt from the five
// specialist sections.
func buildConsolidationPrompt(symbol string, sections []Section) string {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString("## ")
		sb.WriteString(s.Title)
		sb.WriteString("\n")
		sb.WriteString(s.Text)
		sb.WriteString("\n\n")
	}
	return fmt.Sprintf(consolidationPromptTemplate, symbol, sb.String())
}
