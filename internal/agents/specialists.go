package agents

import (
	"context"
	"sync"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/models"
)

// sectionUnavailable replaces a specialist section when its LLM call
// fails. The consolidator still runs with whatever sections succeeded.
const sectionUnavailable = "Analysis unavailable for this dimension."

// Section is one specialist's contribution to the report
type Section struct {
	Title string
	Text  string
}

// Runner drives the specialist and consolidation passes
type Runner struct {
	llm    interfaces.LLMClient
	logger *common.Logger
}

// NewRunner creates a new analysis runner
func NewRunner(llm interfaces.LLMClient, logger *common.Logger) *Runner {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Runner{llm: llm, logger: logger}
}

// RunSpecialists runs the five dimension specialists concurrently and
// returns their sections in fixed order: price, dividend, movement,
// valuation, controversy. A failed call yields a placeholder section
// rather than an error.
func (r *Runner) RunSpecialists(ctx context.Context, symbol string, bundle *models.SnapshotBundle) []Section {
	jobs := []struct {
		title    string
		focus    string
		snapshot interface{}
	}{
		{"Price", "current price action and trading catalysts", bundle.Price},
		{"Dividend", "dividend income and payout sustainability", bundle.Dividend},
		{"Movement", "price movement, volatility and technical patterns", bundle.Movement},
		{"Valuation", "fundamental valuation and margin of safety", bundle.Valuation},
		{"Controversy", "governance risk, anomalies and controversies", bundle.Controversy},
	}

	sections := make([]Section, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, title, focus string, snapshot interface{}) {
			defer wg.Done()

			text, err := r.llm.GenerateContent(ctx, buildSpecialistPrompt(focus, symbol, snapshot))
			if err != nil {
				r.logger.Warn().Err(err).Str("section", title).Msg("Specialist analysis failed")
				text = sectionUnavailable
			}
			sections[i] = Section{Title: title, Text: text}
		}(i, job.title, job.focus, job.snapshot)
	}
	wg.Wait()

	return sections
}
