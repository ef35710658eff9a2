// Package builtins provides the strategy implementations that ship with the
// platform. Each file registers one strategy; RegisterAll wires them into a
// Registry.
package builtins

import (
	"fmt"

	"backlite/internal/backtest"
	"backlite/internal/domain"
	"backlite/internal/strategy"
)

// Compile-time interface check.
var _ backtest.Decider = (*Momentum)(nil)

// Momentum is a stateless single-bar strategy: a bar closing sufficiently
// above its open signals an entry, one closing sufficiently below signals an
// exit. It keeps no state of its own; whether a position is open is read
// from the accumulated Result.
type Momentum struct {
	threshold float64 // fractional move of close against open, e.g. 0.01
}

// NewMomentum creates a Momentum strategy firing on moves larger than
// threshold.
func NewMomentum(threshold float64) (*Momentum, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("momentum: threshold must be positive, got %v", threshold)
	}
	return &Momentum{threshold: threshold}, nil
}

// Name returns "momentum".
func (m *Momentum) Name() string { return "momentum" }

// Decide emits buy on a strong up-bar while flat and close_buy on a strong
// down-bar while long.
func (m *Momentum) Decide(bar domain.Bar, res *backtest.Result) (domain.Action, error) {
	if bar.Open == 0 {
		return domain.ActionNone, fmt.Errorf("momentum: bar %s has zero open", bar.Timestamp)
	}

	move := (bar.Close - bar.Open) / bar.Open
	long := lastActionIsEntry(res)

	switch {
	case !long && move > m.threshold:
		return domain.ActionBuy, nil
	case long && move < -m.threshold:
		return domain.ActionCloseBuy, nil
	}
	return domain.ActionNone, nil
}

// lastActionIsEntry reports whether the most recent accepted action opened a
// position. The replay emits strictly alternating entries and exits for a
// single exposure, so the last action fully determines the position state.
func lastActionIsEntry(res *backtest.Result) bool {
	n := len(res.DataPoints)
	return n > 0 && res.DataPoints[n-1].Action.IsEntry()
}

func init() { register("momentum", buildMomentum) }

func buildMomentum(p strategy.Params) (any, error) {
	return NewMomentum(p.Get("threshold", 0.01))
}
