package domain

import "time"

// RunSummary is the persisted record of one completed backtest run. It holds
// the inputs needed to reproduce the run and the headline statistics; the
// full action stream is not stored.
type RunSummary struct {
	ID              int64
	Symbol          string
	Strategy        string
	Params          map[string]float64
	StartDate       time.Time
	EndDate         time.Time
	StartingBalance float64
	FinalBalance    float64
	TradesCount     int
	TotalProfitLoss float64
	WinRate         float64
	SharpeRatio     float64
	MaxDrawdownPct  float64
	CreatedAt       time.Time
}
