// Package backtest replays a trading strategy over a historical bar series
// and compiles the resulting action stream into completed trades and
// performance statistics.
//
// The replay walks consecutive overlapping bar pairs: the strategy decides on
// bar i and the decision is applied to bar i+1, so an action is always
// attributed to the bar after the one that produced the signal and the
// strategy can never act on information from the bar it is filling on.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"backlite/internal/domain"
)

// Run replays bars through strategy and returns the compiled Result.
//
// strategy must implement either Decider (stateless) or Stateful; the shape
// is resolved once, before the loop starts. The replay itself is strictly
// sequential: the decision for bar i is computed before bar i+1 is evaluated,
// because stateful strategies carry mutated state forward. Each call creates
// its own ExecContext, so concurrent Run invocations are independent.
//
// A nil or empty bar series, a nil strategy, an unrecognized strategy shape,
// or a Stateful Init failure abort the run. A per-bar decision error or panic
// is logged and treated as no action for that bar; one bad bar does not void
// the backtest. A pairing failure during compilation is fatal.
func Run(ctx context.Context, bars []domain.Bar, strategy any, cfg Config) (*Result, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	if strategy == nil {
		return nil, ErrNilStrategy
	}

	cfg = cfg.withDefaults(bars)
	res := newResult(cfg)
	log := slog.Default().With("component", "backtest")

	// Resolve the strategy shape once. ec stays nil for stateless
	// strategies.
	var (
		ec   *ExecContext
		step func(bar domain.Bar, index int) (domain.Action, error)
	)

	switch s := strategy.(type) {
	case Decider:
		step = func(bar domain.Bar, _ int) (domain.Action, error) {
			return s.Decide(bar, res)
		}

	case Stateful:
		ec = newExecContext(res)
		if err := s.Init(ec); err != nil {
			return nil, fmt.Errorf("initializing strategy: %w", err)
		}
		step = func(bar domain.Bar, index int) (domain.Action, error) {
			ec.setBar(bar, index)
			if err := s.Next(ec); err != nil {
				ec.takePending()
				return domain.ActionNone, err
			}
			return ec.takePending(), nil
		}

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownStrategyShape, strategy)
	}

	for i := 0; i+1 < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		action, err := safeStep(step, bars[i], i)
		if err != nil {
			log.Debug("per-bar decision failed, treating as no action",
				"index", i, "error", err)
			continue
		}
		if !action.Valid() {
			continue
		}

		point := domain.DataPoint{Bar: bars[i+1], Action: action, Index: i + 1}
		res.addPoint(point)

		if ec != nil {
			// The acted bar carries the fill; the context's position and
			// realized P&L must reflect it before the next Next call.
			ec.track(point)
		}
	}

	if err := res.Compile(); err != nil {
		return nil, err
	}
	return res, nil
}

// safeStep invokes one strategy decision and converts a panic into an error,
// so a misbehaving strategy costs one bar instead of the whole run.
func safeStep(step func(domain.Bar, int) (domain.Action, error), bar domain.Bar, index int) (action domain.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action = domain.ActionNone
			err = fmt.Errorf("strategy panic on bar %d: %v", index, r)
		}
	}()
	return step(bar, index)
}
