package builtins

import (
	"fmt"

	"backlite/internal/backtest"
	"backlite/internal/domain"
	"backlite/internal/indicators"
	"backlite/internal/strategy"
)

// Compile-time interface check.
var _ backtest.Stateful = (*SMACross)(nil)

// SMACross is a stateful moving average crossover strategy: it buys when the
// short-period SMA crosses above the long-period SMA and closes the position
// when it crosses back below. Price history accumulates across bars, so it
// uses the stateful shape and reads its position through the execution
// context.
type SMACross struct {
	shortPeriod int
	longPeriod  int

	closes []float64
}

// NewSMACross creates an SMACross strategy with the given short and long
// periods.
func NewSMACross(short, long int) (*SMACross, error) {
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("sma-cross: periods must be positive, got %d/%d", short, long)
	}
	if short >= long {
		return nil, fmt.Errorf("sma-cross: short period %d must be below long period %d", short, long)
	}
	return &SMACross{shortPeriod: short, longPeriod: long}, nil
}

// Name returns "sma-cross".
func (s *SMACross) Name() string { return "sma-cross" }

// Init resets the price history so a strategy value can be replayed.
func (s *SMACross) Init(_ *backtest.ExecContext) error {
	s.closes = s.closes[:0]
	return nil
}

// Next appends the current close and emits on a crossover.
func (s *SMACross) Next(ec *backtest.ExecContext) error {
	s.closes = append(s.closes, ec.Bar().Close)
	if len(s.closes) < s.longPeriod+1 {
		return nil
	}

	short := indicators.SMA(s.closes, s.shortPeriod)
	long := indicators.SMA(s.closes, s.longPeriod)
	_, open := ec.OpenPosition()

	switch {
	case !open && indicators.CrossOver(short, long):
		ec.Emit(domain.ActionBuy)
	case open && indicators.CrossUnder(short, long):
		ec.Emit(domain.ActionCloseBuy)
	}
	return nil
}

func init() { register("sma-cross", buildSMACross) }

func buildSMACross(p strategy.Params) (any, error) {
	return NewSMACross(p.IntGet("short", 10), p.IntGet("long", 30))
}
