package backtest

import (
	"time"

	"backlite/internal/domain"
)

// DefaultStartingBalance is used when Config.StartingBalance is zero.
const DefaultStartingBalance = 10_000.0

// Config holds the inputs of a single backtest run besides the bar series
// and the strategy.
type Config struct {
	// StartingBalance is the account balance before the first trade.
	// Defaults to DefaultStartingBalance when zero.
	StartingBalance float64

	// StartDate and EndDate bound the replay window for reporting. When zero
	// they are taken from the first and last bar timestamps.
	StartDate time.Time
	EndDate   time.Time
}

func (c Config) withDefaults(bars []domain.Bar) Config {
	if c.StartingBalance == 0 {
		c.StartingBalance = DefaultStartingBalance
	}
	if c.StartDate.IsZero() && len(bars) > 0 {
		c.StartDate = bars[0].Timestamp
	}
	if c.EndDate.IsZero() && len(bars) > 0 {
		c.EndDate = bars[len(bars)-1].Timestamp
	}
	return c
}

// Result accumulates the action stream during a replay and, once compiled,
// exposes the reconstructed trades and their statistics. It is mutated only
// by the runner while the replay is in progress; after Compile it is
// immutable and safe to share across goroutines.
type Result struct {
	StartingBalance float64
	StartDate       time.Time
	EndDate         time.Time

	// DataPoints holds the bars for which the strategy emitted a recognized
	// action, in chronological order (ascending index).
	DataPoints []domain.DataPoint

	// Populated by Compile.
	TradePairs      []domain.TradePair
	TradesCount     int
	TotalProfitLoss float64
	Stats           Statistics

	compiled bool
}

func newResult(cfg Config) *Result {
	return &Result{
		StartingBalance: cfg.StartingBalance,
		StartDate:       cfg.StartDate,
		EndDate:         cfg.EndDate,
	}
}

// addPoint appends an accepted action point. Runner only.
func (r *Result) addPoint(p domain.DataPoint) {
	r.DataPoints = append(r.DataPoints, p)
}

// Compiled reports whether the Result has been finalized.
func (r *Result) Compiled() bool { return r.compiled }

// FinalBalance returns the balance after the last completed trade, or the
// starting balance when there are no trades.
func (r *Result) FinalBalance() float64 {
	if n := len(r.TradePairs); n > 0 {
		return r.TradePairs[n-1].Balance
	}
	return r.StartingBalance
}

// Compile finalizes the Result: it reconstructs trade pairs from the action
// stream and computes every derived statistic. It runs exactly once; a
// second call returns ErrCompiled. A pairing failure leaves the Result
// uncompiled and is fatal to the run.
func (r *Result) Compile() error {
	if r.compiled {
		return ErrCompiled
	}

	pairs, err := PairTrades(r.DataPoints, r.StartingBalance)
	if err != nil {
		return err
	}

	r.TradePairs = pairs
	r.TradesCount = len(pairs)
	r.Stats = computeStatistics(pairs, r.StartingBalance, r.StartDate, r.EndDate)
	r.TotalProfitLoss = r.Stats.TotalProfitLoss
	r.compiled = true
	return nil
}
