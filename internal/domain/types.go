// Package domain defines the core market data and backtest entities shared
// across the platform: bars, strategy actions, action-tagged data points, and
// completed trade pairs.
package domain

import "time"

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Bar is a single OHLCV observation for a symbol at a point in time.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// Action is a trading decision emitted by a strategy for a single bar.
type Action string

// The four recognized actions. Anything else returned by a strategy is
// treated as "no action" and the bar is not recorded.
const (
	ActionBuy       Action = "buy"
	ActionSell      Action = "sell"
	ActionCloseBuy  Action = "close_buy"
	ActionCloseSell Action = "close_sell"

	// ActionNone is the zero action: the strategy has no opinion on this bar.
	ActionNone Action = ""
)

// Valid reports whether a is one of the four recognized actions.
func (a Action) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionCloseBuy, ActionCloseSell:
		return true
	}
	return false
}

// IsEntry reports whether a opens a directional position.
func (a Action) IsEntry() bool {
	return a == ActionBuy || a == ActionSell
}

// IsExit reports whether a closes a directional position.
func (a Action) IsExit() bool {
	return a == ActionCloseBuy || a == ActionCloseSell
}

// Closes reports whether a is the closing action matching entry.
// close_buy pairs only with buy; close_sell pairs only with sell.
func (a Action) Closes(entry Action) bool {
	switch entry {
	case ActionBuy:
		return a == ActionCloseBuy
	case ActionSell:
		return a == ActionCloseSell
	}
	return false
}

// ---------------------------------------------------------------------------
// Data points
// ---------------------------------------------------------------------------

// DataPoint is one bar annotated with the action a strategy emitted for it
// and its position index in the replayed series. Index is unique and
// monotonically increasing across a series.
type DataPoint struct {
	Bar    Bar
	Action Action
	Index  int
}

// ---------------------------------------------------------------------------
// Trade pairs
// ---------------------------------------------------------------------------

// TradePair is a matched entry and exit forming one completed trade.
// Enter.Action is buy or sell; Exit.Action is the corresponding closing
// action. Balance equals PrevBalance plus the realized P&L of this pair, and
// pairs chain: pair n's PrevBalance equals pair n-1's Balance.
type TradePair struct {
	Enter       DataPoint
	Exit        DataPoint
	Balance     float64
	PrevBalance float64
}

// ProfitLoss returns the realized P&L of this pair. Both legs fill at the
// bar's open price, so the delta is exit open minus enter open for a long
// and the reverse for a short; the threaded balances carry exactly that
// delta, which keeps P&L and win/loss classification on the same field.
func (p TradePair) ProfitLoss() float64 {
	return p.Balance - p.PrevBalance
}

// ResultPercentage expresses the pair's P&L relative to the balance before
// the trade. Returns 0 when PrevBalance is zero.
func (p TradePair) ResultPercentage() float64 {
	if p.PrevBalance == 0 {
		return 0
	}
	return 100 * p.ProfitLoss() / p.PrevBalance
}

// Win reports whether the pair closed with a positive P&L.
func (p TradePair) Win() bool {
	return p.ProfitLoss() > 0
}

// Duration returns the time between the entry and exit bars.
func (p TradePair) Duration() time.Duration {
	return p.Exit.Bar.Timestamp.Sub(p.Enter.Bar.Timestamp)
}
