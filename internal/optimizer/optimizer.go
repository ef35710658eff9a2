// Package optimizer sweeps a strategy's parameter grid, replaying each
// combination over the same bar series and ranking the outcomes by an
// objective statistic.
package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"backlite/internal/backtest"
	"backlite/internal/domain"
	"backlite/internal/strategy"
)

// Range describes one swept parameter: every value From, From+Step, ... up
// to and including To.
type Range struct {
	Name string
	From float64
	To   float64
	Step float64
}

// Grid is the set of parameter ranges to sweep. The cartesian product of all
// ranges is evaluated.
type Grid []Range

// Combinations expands the grid into the full list of parameter sets.
func (g Grid) Combinations() ([]strategy.Params, error) {
	for _, r := range g {
		if r.Step <= 0 {
			return nil, fmt.Errorf("range %q: step must be positive, got %v", r.Name, r.Step)
		}
		if r.To < r.From {
			return nil, fmt.Errorf("range %q: to %v is below from %v", r.Name, r.To, r.From)
		}
	}

	combos := []strategy.Params{{}}
	for _, r := range g {
		var next []strategy.Params
		// Integer stepping avoids float accumulation drift past To.
		steps := int(math.Floor((r.To-r.From)/r.Step + 1e-9))
		for _, base := range combos {
			for i := 0; i <= steps; i++ {
				p := make(strategy.Params, len(base)+1)
				for k, v := range base {
					p[k] = v
				}
				p[r.Name] = r.From + float64(i)*r.Step
				next = append(next, p)
			}
		}
		combos = next
	}
	return combos, nil
}

// Objective extracts the figure to maximize from a run's statistics.
type Objective func(s backtest.Statistics) float64

// ObjectiveByName resolves a named objective. Supported names: "sharpe",
// "sortino", "calmar", "sqn", "profit", "winrate".
func ObjectiveByName(name string) (Objective, error) {
	switch name {
	case "sharpe":
		return func(s backtest.Statistics) float64 { return s.SharpeRatio }, nil
	case "sortino":
		return func(s backtest.Statistics) float64 { return s.SortinoRatio }, nil
	case "calmar":
		return func(s backtest.Statistics) float64 { return s.CalmarRatio }, nil
	case "sqn":
		return func(s backtest.Statistics) float64 { return s.SQN }, nil
	case "profit":
		return func(s backtest.Statistics) float64 { return s.TotalProfitLoss }, nil
	case "winrate":
		return func(s backtest.Statistics) float64 { return s.WinRate }, nil
	default:
		return nil, fmt.Errorf("unknown objective %q", name)
	}
}

// Result is the outcome of one swept combination.
type Result struct {
	Params strategy.Params
	Score  float64
	Trades int
	Stats  backtest.Statistics
	Err    error
}

// Optimizer runs the sweep. Each combination gets a freshly built strategy
// value, so stateful strategies never share state across workers.
type Optimizer struct {
	registry *strategy.Registry
	workers  int
	log      *slog.Logger
}

// New creates an Optimizer building strategies from reg with the given
// worker count.
func New(reg *strategy.Registry, workers int) *Optimizer {
	return &Optimizer{
		registry: reg,
		workers:  max(workers, 1),
		log:      slog.Default().With("component", "optimizer"),
	}
}

// Sweep evaluates every combination of grid for the named strategy over bars
// and returns all results sorted by descending score, best first. A
// combination whose build or replay fails is kept in the results with its
// error and scored below every successful one.
func (o *Optimizer) Sweep(ctx context.Context, name string, grid Grid, bars []domain.Bar, cfg backtest.Config, obj Objective) ([]Result, error) {
	combos, err := grid.Combinations()
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("nil objective")
	}

	o.log.Info("starting sweep", "strategy", name, "combinations", len(combos))

	comboCh := make(chan int, len(combos))
	for i := range combos {
		comboCh <- i
	}
	close(comboCh)

	results := make([]Result, len(combos))
	var wg sync.WaitGroup
	for w := 0; w < min(o.workers, len(combos)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range comboCh {
				if ctx.Err() != nil {
					return
				}
				results[i] = o.evaluate(ctx, name, combos[i], bars, cfg, obj)
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.SliceStable(results, func(i, j int) bool {
		return score(results[i]) > score(results[j])
	})

	best := results[0]
	if best.Err == nil {
		o.log.Info("sweep complete", "best", best.Params, "score", best.Score)
	}
	return results, nil
}

func (o *Optimizer) evaluate(ctx context.Context, name string, params strategy.Params, bars []domain.Bar, cfg backtest.Config, obj Objective) Result {
	strat, err := o.registry.Build(name, params)
	if err != nil {
		return Result{Params: params, Err: fmt.Errorf("building %s: %w", name, err)}
	}

	res, err := backtest.Run(ctx, bars, strat, cfg)
	if err != nil {
		return Result{Params: params, Err: err}
	}

	return Result{Params: params, Score: obj(res.Stats), Trades: res.TradesCount, Stats: res.Stats}
}

// score orders results for ranking: failed or NaN-scored combinations sink
// to the bottom.
func score(r Result) float64 {
	if r.Err != nil || math.IsNaN(r.Score) {
		return math.Inf(-1)
	}
	return r.Score
}
