package builtins

import (
	"context"
	"testing"
	"time"

	"backlite/internal/backtest"
	"backlite/internal/domain"
	"backlite/internal/strategy"
)

func bar(i int, open, close float64) domain.Bar {
	return domain.Bar{
		Symbol:    "TEST",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:      open,
		High:      max(open, close) + 1,
		Low:       min(open, close) - 1,
		Close:     close,
		Volume:    1000,
	}
}

func flatBars(prices ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(prices))
	for i, p := range prices {
		bars[i] = bar(i, p, p)
	}
	return bars
}

func TestRegisterAll(t *testing.T) {
	reg := strategy.NewRegistry()
	RegisterAll(reg)

	names := reg.List()
	want := []string{"momentum", "rsi-reversal", "sma-cross"}
	if len(names) != len(want) {
		t.Fatalf("List returned %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFactoryValidation(t *testing.T) {
	reg := strategy.NewRegistry()
	RegisterAll(reg)

	if _, err := reg.Build("sma-cross", strategy.Params{"short": 30, "long": 10}); err == nil {
		t.Error("sma-cross accepted short >= long")
	}
	if _, err := reg.Build("rsi-reversal", strategy.Params{"oversold": 80, "overbought": 20}); err == nil {
		t.Error("rsi-reversal accepted oversold >= overbought")
	}
	if _, err := reg.Build("momentum", strategy.Params{"threshold": -1}); err == nil {
		t.Error("momentum accepted a negative threshold")
	}
}

func TestMomentumRoundTrip(t *testing.T) {
	strat, err := NewMomentum(0.01)
	if err != nil {
		t.Fatalf("NewMomentum: %v", err)
	}

	bars := []domain.Bar{
		bar(0, 10, 10.5), // +5% move: buy, fills at bar 1
		bar(1, 11, 10.5), // -4.5% move while long: close, fills at bar 2
		bar(2, 12, 12),
	}

	res, err := backtest.Run(context.Background(), bars, strat, backtest.Config{StartingBalance: 100})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.TradesCount != 1 {
		t.Fatalf("TradesCount = %d, want 1", res.TradesCount)
	}
	pair := res.TradePairs[0]
	if pair.Enter.Bar.Open != 11 || pair.Exit.Bar.Open != 12 {
		t.Errorf("fills = %v -> %v, want 11 -> 12", pair.Enter.Bar.Open, pair.Exit.Bar.Open)
	}
	if pair.ProfitLoss() != 1 {
		t.Errorf("ProfitLoss() = %v, want 1", pair.ProfitLoss())
	}
}

func TestMomentumStaysFlatOnQuietBars(t *testing.T) {
	strat, err := NewMomentum(0.05)
	if err != nil {
		t.Fatalf("NewMomentum: %v", err)
	}

	res, err := backtest.Run(context.Background(), flatBars(10, 10, 10, 10), strat, backtest.Config{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.DataPoints) != 0 {
		t.Errorf("emitted %d points on a flat series, want 0", len(res.DataPoints))
	}
}

func TestSMACrossRoundTrip(t *testing.T) {
	strat, err := NewSMACross(2, 3)
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}

	// V-shaped series: the short SMA crosses above the long SMA during the
	// recovery (decision on bar 5, fill at bar 6) and back below during the
	// decline (decision on bar 10, fill at bar 11).
	bars := flatBars(10, 9, 8, 7, 8, 9, 10, 11, 12, 11, 9, 7)

	res, err := backtest.Run(context.Background(), bars, strat, backtest.Config{StartingBalance: 1000})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.TradesCount != 1 {
		t.Fatalf("TradesCount = %d, want 1", res.TradesCount)
	}
	pair := res.TradePairs[0]
	if pair.Enter.Index != 6 || pair.Exit.Index != 11 {
		t.Errorf("pair indices = %d -> %d, want 6 -> 11", pair.Enter.Index, pair.Exit.Index)
	}
	if pair.ProfitLoss() != -3 {
		t.Errorf("ProfitLoss() = %v, want -3 (enter 10, exit 7)", pair.ProfitLoss())
	}
}

func TestSMACrossInitResets(t *testing.T) {
	strat, err := NewSMACross(2, 3)
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}

	bars := flatBars(10, 9, 8, 7, 8, 9, 10, 11, 12, 11, 9, 7)

	first, err := backtest.Run(context.Background(), bars, strat, backtest.Config{})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := backtest.Run(context.Background(), bars, strat, backtest.Config{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.TradesCount != second.TradesCount {
		t.Errorf("replaying the same strategy value changed trades: %d vs %d",
			first.TradesCount, second.TradesCount)
	}
}

func TestRSIReversalBuysOversold(t *testing.T) {
	strat, err := NewRSIReversal(3, 30, 70)
	if err != nil {
		t.Fatalf("NewRSIReversal: %v", err)
	}

	// Steady decline drives RSI to 0, well below the oversold level.
	bars := flatBars(20, 19, 18, 17, 16, 15, 14)

	res, err := backtest.Run(context.Background(), bars, strat, backtest.Config{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.DataPoints) == 0 {
		t.Fatal("no entry emitted on a steady decline")
	}
	if got := res.DataPoints[0].Action; got != domain.ActionBuy {
		t.Errorf("first action = %q, want buy", got)
	}
}
