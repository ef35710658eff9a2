package backtest

import (
	"errors"
	"fmt"

	"backlite/internal/domain"
)

// Input-contract errors. These fail fast, before any replay begins.
var (
	// ErrNoData is returned when the bar series is nil or empty.
	ErrNoData = errors.New("data cannot be empty")

	// ErrNilStrategy is returned when no strategy value is supplied.
	ErrNilStrategy = errors.New("strategy cannot be nil")

	// ErrUnknownStrategyShape is returned when the strategy value implements
	// neither the Decider nor the Stateful interface.
	ErrUnknownStrategyShape = errors.New("strategy implements neither Decider nor Stateful")

	// ErrCompiled is returned when Compile is called on an already compiled
	// Result. A Result is finalized exactly once.
	ErrCompiled = errors.New("result already compiled")
)

// PairingError reports an action combination the pairing scan cannot
// reconcile. It indicates either a corrupt action stream or a pairing bug and
// is always fatal; the engine never guesses around it.
type PairingError struct {
	Index int           // series index of the offending data point
	Enter domain.Action // entry-slot action at the time of failure
	Exit  domain.Action // exit-slot action at the time of failure
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("pairing: cannot reconcile actions %q/%q at index %d", e.Enter, e.Exit, e.Index)
}
