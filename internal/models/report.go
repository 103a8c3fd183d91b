package models

import "time"

// Verdict is the final investment call
type Verdict string

const (
	VerdictBuy    Verdict = "BUY"
	VerdictNotBuy Verdict = "NOT BUY"
)

// SnapshotBundle groups the five per-dimension snapshots for one request
type SnapshotBundle struct {
	Price       StockSnapshot       `json:"price"`
	Dividend    DividendSnapshot    `json:"dividend"`
	Movement    MovementSnapshot    `json:"movement"`
	Valuation   ValuationSnapshot   `json:"valuation"`
	Controversy ControversySnapshot `json:"controversy"`
}

// StockReport is the consolidated investment report
type StockReport struct {
	ID                 string    `json:"id"`
	Symbol             string    `json:"symbol"`
	Verdict            Verdict   `json:"verdict"`
	Summary            string    `json:"summary"`
	PriceSection       string    `json:"price_section"`
	DividendSection    string    `json:"dividend_section"`
	MovementSection    string    `json:"movement_section"`
	ValuationSection   string    `json:"valuation_section"`
	ControversySection string    `json:"controversy_section"`
	CreatedAt          time.Time `json:"created_at"`
}
