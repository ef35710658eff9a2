package optimizer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"backlite/internal/backtest"
	"backlite/internal/domain"
	"backlite/internal/strategy"
)

// gateDecider completes one round trip when armed and stays flat otherwise.
type gateDecider struct {
	trade bool
}

func (g gateDecider) Decide(_ domain.Bar, res *backtest.Result) (domain.Action, error) {
	if !g.trade {
		return domain.ActionNone, nil
	}
	if n := len(res.DataPoints); n > 0 && res.DataPoints[n-1].Action.IsEntry() {
		return domain.ActionCloseBuy, nil
	}
	if len(res.TradePairs) > 0 || len(res.DataPoints) > 0 {
		return domain.ActionNone, nil
	}
	return domain.ActionBuy, nil
}

func gateRegistry(t *testing.T) *strategy.Registry {
	t.Helper()
	reg := strategy.NewRegistry()
	reg.Register("gate", func(p strategy.Params) (any, error) {
		v := p.Get("trade", 0)
		if v < 0 {
			return nil, fmt.Errorf("gate: trade must not be negative, got %v", v)
		}
		return gateDecider{trade: v > 0}, nil
	})
	return reg
}

func testBars() []domain.Bar {
	opens := []float64{10, 10, 12}
	bars := make([]domain.Bar, len(opens))
	for i, o := range opens {
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:      o, High: o + 1, Low: o - 1, Close: o,
			Volume: 1000,
		}
	}
	return bars
}

func TestGridCombinations(t *testing.T) {
	g := Grid{
		{Name: "short", From: 2, To: 3, Step: 1},
		{Name: "long", From: 4, To: 6, Step: 1},
	}
	combos, err := g.Combinations()
	if err != nil {
		t.Fatalf("Combinations returned error: %v", err)
	}
	if len(combos) != 6 {
		t.Fatalf("Combinations returned %d sets, want 6", len(combos))
	}

	seen := make(map[string]bool)
	for _, c := range combos {
		seen[fmt.Sprintf("%v/%v", c["short"], c["long"])] = true
	}
	for _, want := range []string{"2/4", "2/5", "2/6", "3/4", "3/5", "3/6"} {
		if !seen[want] {
			t.Errorf("missing combination %s", want)
		}
	}
}

func TestGridCombinationsFractionalStep(t *testing.T) {
	g := Grid{{Name: "threshold", From: 0.01, To: 0.03, Step: 0.01}}
	combos, err := g.Combinations()
	if err != nil {
		t.Fatalf("Combinations returned error: %v", err)
	}
	if len(combos) != 3 {
		t.Errorf("Combinations returned %d sets, want 3 (0.01, 0.02, 0.03)", len(combos))
	}
}

func TestGridCombinationsInvalid(t *testing.T) {
	if _, err := (Grid{{Name: "x", From: 1, To: 2, Step: 0}}).Combinations(); err == nil {
		t.Error("Combinations accepted a zero step")
	}
	if _, err := (Grid{{Name: "x", From: 5, To: 2, Step: 1}}).Combinations(); err == nil {
		t.Error("Combinations accepted to < from")
	}
}

func TestObjectiveByName(t *testing.T) {
	obj, err := ObjectiveByName("profit")
	if err != nil {
		t.Fatalf("ObjectiveByName(profit): %v", err)
	}
	if got := obj(backtest.Statistics{TotalProfitLoss: 42}); got != 42 {
		t.Errorf("profit objective = %v, want 42", got)
	}

	if _, err := ObjectiveByName("alpha-decay"); err == nil {
		t.Error("ObjectiveByName accepted an unknown objective")
	}
}

func TestSweepRanksByObjective(t *testing.T) {
	reg := gateRegistry(t)
	opt := New(reg, 4)

	obj, err := ObjectiveByName("profit")
	if err != nil {
		t.Fatalf("ObjectiveByName: %v", err)
	}

	grid := Grid{{Name: "trade", From: 0, To: 1, Step: 1}}
	results, err := opt.Sweep(context.Background(), "gate", grid, testBars(), backtest.Config{StartingBalance: 100}, obj)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Sweep returned %d results, want 2", len(results))
	}

	best := results[0]
	if best.Err != nil {
		t.Fatalf("best result carries error: %v", best.Err)
	}
	if best.Params["trade"] != 1 {
		t.Errorf("best Params[trade] = %v, want 1", best.Params["trade"])
	}
	// One round trip entered at open 10 and exited at open 12.
	if best.Score != 2 {
		t.Errorf("best Score = %v, want 2", best.Score)
	}
	if results[1].Score != 0 {
		t.Errorf("idle combination Score = %v, want 0", results[1].Score)
	}
}

func TestSweepFailedBuildSinksToBottom(t *testing.T) {
	reg := gateRegistry(t)
	opt := New(reg, 2)

	obj, _ := ObjectiveByName("profit")
	grid := Grid{{Name: "trade", From: -1, To: 1, Step: 1}}
	results, err := opt.Sweep(context.Background(), "gate", grid, testBars(), backtest.Config{}, obj)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Sweep returned %d results, want 3", len(results))
	}

	last := results[len(results)-1]
	if last.Err == nil {
		t.Error("failed combination did not sort last")
	}
	if last.Params["trade"] != -1 {
		t.Errorf("failing Params[trade] = %v, want -1", last.Params["trade"])
	}
}

func TestSweepCancelled(t *testing.T) {
	reg := gateRegistry(t)
	opt := New(reg, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	obj, _ := ObjectiveByName("profit")
	grid := Grid{{Name: "trade", From: 0, To: 1, Step: 1}}
	if _, err := opt.Sweep(ctx, "gate", grid, testBars(), backtest.Config{}, obj); err == nil {
		t.Error("Sweep succeeded with a cancelled context")
	}
}
