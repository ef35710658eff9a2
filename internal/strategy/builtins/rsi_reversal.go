package builtins

import (
	"fmt"
	"math"

	"backlite/internal/backtest"
	"backlite/internal/domain"
	"backlite/internal/indicators"
	"backlite/internal/strategy"
)

// Compile-time interface check.
var _ backtest.Stateful = (*RSIReversal)(nil)

// RSIReversal is a stateful mean-reversion strategy: it buys when RSI falls
// below the oversold level and closes the position when RSI rises above the
// overbought level.
type RSIReversal struct {
	period     int
	oversold   float64
	overbought float64

	closes []float64
}

// NewRSIReversal creates an RSIReversal strategy.
func NewRSIReversal(period int, oversold, overbought float64) (*RSIReversal, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi-reversal: period must be positive, got %d", period)
	}
	if oversold >= overbought {
		return nil, fmt.Errorf("rsi-reversal: oversold %v must be below overbought %v", oversold, overbought)
	}
	return &RSIReversal{period: period, oversold: oversold, overbought: overbought}, nil
}

// Name returns "rsi-reversal".
func (s *RSIReversal) Name() string { return "rsi-reversal" }

// Init resets the price history so a strategy value can be replayed.
func (s *RSIReversal) Init(_ *backtest.ExecContext) error {
	s.closes = s.closes[:0]
	return nil
}

// Next appends the current close and emits on threshold crossings.
func (s *RSIReversal) Next(ec *backtest.ExecContext) error {
	s.closes = append(s.closes, ec.Bar().Close)

	rsi := indicators.RSI(s.closes, s.period)
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return nil
	}

	_, open := ec.OpenPosition()
	switch {
	case !open && last < s.oversold:
		ec.Emit(domain.ActionBuy)
	case open && last > s.overbought:
		ec.Emit(domain.ActionCloseBuy)
	}
	return nil
}

func init() { register("rsi-reversal", buildRSIReversal) }

func buildRSIReversal(p strategy.Params) (any, error) {
	return NewRSIReversal(p.IntGet("period", 14), p.Get("oversold", 30), p.Get("overbought", 70))
}
