package backtest

import "backlite/internal/domain"

// Two strategy shapes are supported, resolved once at the start of a run.
//
// A Decider is the stateless shape: a pure decision over the current bar and
// the read-only Result accumulated so far. A Stateful strategy is initialized
// once and then stepped per bar; it reads the current bar, the open position,
// and equity through the run's ExecContext and emits its action through the
// same context instead of a return value.

// Decider is the stateless strategy shape. Decide is invoked once per bar
// pair with the signal bar; the returned action is applied to the following
// bar. Returning ActionNone (or any unrecognized action) records nothing.
type Decider interface {
	Decide(bar domain.Bar, res *Result) (domain.Action, error)
}

// DeciderFunc adapts a plain function to the Decider interface.
type DeciderFunc func(bar domain.Bar, res *Result) (domain.Action, error)

// Decide calls f.
func (f DeciderFunc) Decide(bar domain.Bar, res *Result) (domain.Action, error) {
	return f(bar, res)
}

// Stateful is the stateful strategy shape. Init runs once before the replay;
// an Init error aborts the whole backtest. Next runs once per bar pair; a
// Next error (or panic) is swallowed and treated as no action for that bar.
type Stateful interface {
	Init(ec *ExecContext) error
	Next(ec *ExecContext) error
}
