package backtest

import (
	"math"
	"testing"
	"time"

	"backlite/internal/domain"
)

// pairSeq builds a chronologically threaded pair sequence from per-trade
// P&L deltas, one pair per day.
func pairSeq(startingBalance float64, deltas ...float64) []domain.TradePair {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	balance := startingBalance
	pairs := make([]domain.TradePair, len(deltas))
	for i, d := range deltas {
		pairs[i] = domain.TradePair{
			Enter:       domain.DataPoint{Bar: domain.Bar{Timestamp: base.AddDate(0, 0, i)}, Action: domain.ActionBuy, Index: 2 * i},
			Exit:        domain.DataPoint{Bar: domain.Bar{Timestamp: base.AddDate(0, 0, i+1)}, Action: domain.ActionCloseBuy, Index: 2*i + 1},
			PrevBalance: balance,
			Balance:     balance + d,
		}
		balance += d
	}
	return pairs
}

func statsWindow() (time.Time, time.Time) {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(nil, 1000, start, end)
	if s != (Statistics{}) {
		t.Errorf("computeStatistics(nil) = %+v, want zero struct", s)
	}
}

func TestComputeStatisticsTotals(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 10, -4, 6), 1000, start, end)

	if s.TotalProfitLoss != 12 {
		t.Errorf("TotalProfitLoss = %v, want 12", s.TotalProfitLoss)
	}
	if s.Expectancy != 4 {
		t.Errorf("Expectancy = %v, want 4", s.Expectancy)
	}
	wantWinRate := 2.0 / 3.0 * 100
	if math.Abs(s.WinRate-wantWinRate) > 1e-9 {
		t.Errorf("WinRate = %v, want %v", s.WinRate, wantWinRate)
	}
	if s.ProfitFactor != 4 {
		t.Errorf("ProfitFactor = %v, want 4 (gross 16 / loss 4)", s.ProfitFactor)
	}
	if s.AvgWin != 8 {
		t.Errorf("AvgWin = %v, want 8", s.AvgWin)
	}
	if s.AvgLoss != 4 {
		t.Errorf("AvgLoss = %v, want 4", s.AvgLoss)
	}
	if s.LargestWin != 10 || s.LargestLoss != 4 {
		t.Errorf("LargestWin/LargestLoss = %v/%v, want 10/4", s.LargestWin, s.LargestLoss)
	}
}

func TestProfitFactorNoLosses(t *testing.T) {
	start, end := statsWindow()

	s := computeStatistics(pairSeq(1000, 5, 7), 1000, start, end)
	if !math.IsInf(s.ProfitFactor, 1) {
		t.Errorf("ProfitFactor with no losses = %v, want +Inf", s.ProfitFactor)
	}

	// All-zero trades: both gross profit and gross loss are zero.
	s = computeStatistics(pairSeq(1000, 0, 0), 1000, start, end)
	if s.ProfitFactor != 0 {
		t.Errorf("ProfitFactor with zero profit and loss = %v, want 0", s.ProfitFactor)
	}
}

func TestSQNSingleTrade(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 42), 1000, start, end)
	if s.SQN != 0 {
		t.Errorf("SQN with one trade = %v, want 0", s.SQN)
	}
}

func TestSQNZeroDeviation(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 5, 5, 5), 1000, start, end)
	if s.SQN != 0 {
		t.Errorf("SQN with identical trades = %v, want 0", s.SQN)
	}
}

func TestSQNValue(t *testing.T) {
	// P&Ls 2 and 4: mean 3, population stdev 1, sqrt(2).
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 2, 4), 1000, start, end)
	want := 3 * math.Sqrt(2)
	if math.Abs(s.SQN-want) > 1e-9 {
		t.Errorf("SQN = %v, want %v", s.SQN, want)
	}
}

func TestKellyCriterion(t *testing.T) {
	// Two wins of 10, one loss of 5: winRate 2/3, odds 2.
	// kelly = (2*(2/3) - 1/3) / 2 = 0.5.
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 10, 10, -5), 1000, start, end)
	if math.Abs(s.KellyCriterion-0.5) > 1e-9 {
		t.Errorf("KellyCriterion = %v, want 0.5", s.KellyCriterion)
	}
}

func TestKellyCriterionNoLosses(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 10, 10), 1000, start, end)
	if s.KellyCriterion != 0 {
		t.Errorf("KellyCriterion with no losses = %v, want 0", s.KellyCriterion)
	}
}

func TestDrawdowns(t *testing.T) {
	// Balance path from 1000: 1100 (peak), 1045, 1078, 1122 (new peak).
	pairs := pairSeq(1000, 100, -55, 33, 44)
	start, end := statsWindow()
	s := computeStatistics(pairs, 1000, start, end)

	// Worst decline: 1045 against peak 1100 -> 5%.
	if math.Abs(s.MaxDrawdown.Percent-5) > 1e-9 {
		t.Errorf("MaxDrawdown.Percent = %v, want 5", s.MaxDrawdown.Percent)
	}
	// Peak set at pair 0 exit (day 1), undercut at pair 1 exit (day 2): 1 day.
	if math.Abs(s.MaxDrawdown.Days-1) > 1e-9 {
		t.Errorf("MaxDrawdown.Days = %v, want 1", s.MaxDrawdown.Days)
	}

	// Registered drawdowns: 1045 (5%, 1 day) and 1078 (2%, 2 days).
	wantAvgPct := (5.0 + 2.0) / 2
	if math.Abs(s.AvgDrawdown.Percent-wantAvgPct) > 1e-9 {
		t.Errorf("AvgDrawdown.Percent = %v, want %v", s.AvgDrawdown.Percent, wantAvgPct)
	}
	wantAvgDays := (1.0 + 2.0) / 2
	if math.Abs(s.AvgDrawdown.Days-wantAvgDays) > 1e-9 {
		t.Errorf("AvgDrawdown.Days = %v, want %v", s.AvgDrawdown.Days, wantAvgDays)
	}
}

func TestDrawdownsNoDecline(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 10, 20, 30), 1000, start, end)
	if s.MaxDrawdown != (Drawdown{}) {
		t.Errorf("MaxDrawdown = %+v, want zero struct", s.MaxDrawdown)
	}
	if s.AvgDrawdown != (Drawdown{}) {
		t.Errorf("AvgDrawdown = %+v, want zero struct", s.AvgDrawdown)
	}
	if s.CalmarRatio != 0 {
		t.Errorf("CalmarRatio with zero drawdown = %v, want 0", s.CalmarRatio)
	}
}

func TestRatiosZeroVolatility(t *testing.T) {
	start, end := statsWindow()
	// Identical relative returns produce near-zero but non-zero variance as
	// the balance compounds, so use a flat sequence instead.
	s := computeStatistics(pairSeq(1000, 0, 0, 0), 1000, start, end)
	if s.SharpeRatio != 0 {
		t.Errorf("SharpeRatio with zero volatility = %v, want 0", s.SharpeRatio)
	}
	if s.SortinoRatio != 0 {
		t.Errorf("SortinoRatio with no losing trades = %v, want 0", s.SortinoRatio)
	}
}

func TestSharpePositive(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 30, -10, 25, 5), 1000, start, end)
	if s.SharpeRatio <= 0 {
		t.Errorf("SharpeRatio = %v, want > 0 for a clearly profitable sequence", s.SharpeRatio)
	}
	if s.SortinoRatio <= 0 {
		t.Errorf("SortinoRatio = %v, want > 0", s.SortinoRatio)
	}
	if s.SortinoRatio <= s.SharpeRatio {
		t.Errorf("SortinoRatio (%v) should exceed SharpeRatio (%v) when downside deviation is smaller", s.SortinoRatio, s.SharpeRatio)
	}
}

func TestStreaks(t *testing.T) {
	start, end := statsWindow()
	s := computeStatistics(pairSeq(1000, 1, 2, 3, -1, -2, 4, -3), 1000, start, end)
	if s.MaxConsecutiveWins != 3 {
		t.Errorf("MaxConsecutiveWins = %d, want 3", s.MaxConsecutiveWins)
	}
	if s.MaxConsecutiveLosses != 2 {
		t.Errorf("MaxConsecutiveLosses = %d, want 2", s.MaxConsecutiveLosses)
	}
}

func TestTotalAndAnnualizedReturn(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).AddDate(0, 0, -1) // ~365 days
	s := computeStatistics(pairSeq(1000, 100), 1000, start, end)

	if math.Abs(s.TotalReturn-10) > 1e-9 {
		t.Errorf("TotalReturn = %v, want 10", s.TotalReturn)
	}
	// Over ~one year the annualized return tracks the total return.
	if math.Abs(s.AnnualizedReturn-10) > 0.1 {
		t.Errorf("AnnualizedReturn = %v, want ~10", s.AnnualizedReturn)
	}
}
