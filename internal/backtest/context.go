package backtest

import "backlite/internal/domain"

// ExecContext is the shared execution context for stateful strategies. It is
// a single-writer, single-reader resource scoped to one backtest run: the
// runner writes the current bar and position bookkeeping, the strategy reads
// them and emits at most one action per bar. Each Run creates a fresh
// context, so concurrent backtests (optimizer sweeps) never share state.
type ExecContext struct {
	bar     domain.Bar
	index   int
	result  *Result
	open    *domain.DataPoint
	pending domain.Action

	realized float64
}

func newExecContext(res *Result) *ExecContext {
	return &ExecContext{result: res}
}

// Bar returns the bar the strategy is currently deciding on.
func (ec *ExecContext) Bar() domain.Bar { return ec.bar }

// Index returns the series index of the current bar.
func (ec *ExecContext) Index() int { return ec.index }

// Result returns the accumulating Result. Strategies must treat it as
// read-only; all mutation goes through the runner.
func (ec *ExecContext) Result() *Result { return ec.result }

// OpenPosition returns the entry data point of the currently open directional
// exposure, if any.
func (ec *ExecContext) OpenPosition() (domain.DataPoint, bool) {
	if ec.open == nil {
		return domain.DataPoint{}, false
	}
	return *ec.open, true
}

// Equity returns the starting balance plus the realized P&L of all positions
// closed so far in this run. Unrealized P&L of an open position is not
// included.
func (ec *ExecContext) Equity() float64 {
	return ec.result.StartingBalance + ec.realized
}

// Emit records the strategy's action for the current bar. The last Emit
// before the bar advances wins; the runner consumes and clears the pending
// action after every bar.
func (ec *ExecContext) Emit(action domain.Action) {
	ec.pending = action
}

// setBar advances the context to the next signal bar. Called by the runner
// only.
func (ec *ExecContext) setBar(bar domain.Bar, index int) {
	ec.bar = bar
	ec.index = index
}

// takePending returns and clears the action emitted for the current bar.
func (ec *ExecContext) takePending() domain.Action {
	a := ec.pending
	ec.pending = domain.ActionNone
	return a
}

// track updates position bookkeeping for an accepted action point. Entries
// open the position; a matching close realizes the open-price delta. A close
// that does not match the held direction is left to the pairing stage, which
// rejects it loudly.
func (ec *ExecContext) track(point domain.DataPoint) {
	switch {
	case point.Action.IsEntry():
		p := point
		ec.open = &p
	case ec.open != nil && point.Action.Closes(ec.open.Action):
		if ec.open.Action == domain.ActionBuy {
			ec.realized += point.Bar.Open - ec.open.Bar.Open
		} else {
			ec.realized += ec.open.Bar.Open - point.Bar.Open
		}
		ec.open = nil
	}
}
