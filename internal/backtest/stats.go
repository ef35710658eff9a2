package backtest

import (
	"math"
	"time"

	"backlite/internal/domain"
)

const (
	tradingDaysPerYear = 252
	annualRiskFreeRate = 0.02
)

// Drawdown describes one peak-to-trough decline in the running balance.
// Percent is the decline relative to the peak; Days is the time between the
// peak and the point that undercut it, measured from exit timestamps.
type Drawdown struct {
	Percent float64
	Days    float64
}

// Statistics holds every metric derived from the reconstructed trade pairs.
// All reducers are pure and total: degenerate inputs (no trades, zero
// volatility, zero denominators) yield zero values, never a failure. The
// single exception is ProfitFactor, which is +Inf for a strategy with gross
// profit and no gross loss so that "never lost" ranks above any finite
// factor.
type Statistics struct {
	TotalProfitLoss  float64
	TotalReturn      float64 // percent of starting balance
	AnnualizedReturn float64 // percent
	Volatility       float64 // percent, annualized from per-trade returns

	WinRate      float64 // percent
	ProfitFactor float64
	Expectancy   float64

	MaxDrawdown Drawdown
	AvgDrawdown Drawdown

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64

	SQN            float64
	KellyCriterion float64

	AvgWin      float64
	AvgLoss     float64 // absolute value
	LargestWin  float64
	LargestLoss float64 // absolute value

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
}

// computeStatistics reduces the ordered trade pair sequence into Statistics.
// Per-trade returns stand in for periodic returns in the volatility-based
// ratios; that is a deliberate simplification, the replay has no equity mark
// between trades.
func computeStatistics(pairs []domain.TradePair, startingBalance float64, start, end time.Time) Statistics {
	var s Statistics
	if len(pairs) == 0 {
		return s
	}

	n := float64(len(pairs))
	pls := make([]float64, len(pairs))
	returns := make([]float64, len(pairs))
	for i, p := range pairs {
		pls[i] = p.ProfitLoss()
		returns[i] = p.ResultPercentage() / 100
		s.TotalProfitLoss += pls[i]
	}

	// Win/loss partition. Classification uses the same open-price delta as
	// the P&L itself; zero-delta trades count as neither.
	var (
		wins, losses           int
		grossProfit, grossLoss float64
	)
	for _, pl := range pls {
		switch {
		case pl > 0:
			wins++
			grossProfit += pl
			if pl > s.LargestWin {
				s.LargestWin = pl
			}
		case pl < 0:
			losses++
			grossLoss += -pl
			if -pl > s.LargestLoss {
				s.LargestLoss = -pl
			}
		}
	}

	s.WinRate = float64(wins) / n * 100
	s.Expectancy = s.TotalProfitLoss / n

	switch {
	case grossLoss == 0 && grossProfit == 0:
		s.ProfitFactor = 0
	case grossLoss == 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = grossProfit / grossLoss
	}

	if wins > 0 {
		s.AvgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = grossLoss / float64(losses)
	}

	s.MaxConsecutiveWins, s.MaxConsecutiveLosses = streaks(pls)
	s.MaxDrawdown, s.AvgDrawdown = drawdowns(pairs, startingBalance, start)

	if startingBalance != 0 {
		final := pairs[len(pairs)-1].Balance
		s.TotalReturn = (final - startingBalance) / startingBalance * 100
	}
	s.AnnualizedReturn = annualize(s.TotalReturn, start, end)
	s.Volatility = stdev(returns) * math.Sqrt(tradingDaysPerYear) * 100

	s.SharpeRatio = sharpe(returns)
	s.SortinoRatio = sortino(returns)
	if s.MaxDrawdown.Percent != 0 {
		s.CalmarRatio = s.AnnualizedReturn / s.MaxDrawdown.Percent
	}

	s.SQN = sqn(pls)
	s.KellyCriterion = kelly(float64(wins)/n, s.AvgWin, s.AvgLoss)

	return s
}

// drawdowns tracks the running peak balance across ordered pairs. A pair
// establishes a new peak only when its balance exceeds the prior peak; a
// pair below the peak registers a drawdown. The average covers only pairs
// that registered one.
func drawdowns(pairs []domain.TradePair, startingBalance float64, start time.Time) (max, avg Drawdown) {
	peak := startingBalance
	peakTime := start

	var sumPct, sumDays float64
	var registered int

	for _, p := range pairs {
		if p.Balance > peak {
			peak = p.Balance
			peakTime = p.Exit.Bar.Timestamp
			continue
		}
		if p.Balance >= peak || peak == 0 {
			continue
		}

		dd := Drawdown{
			Percent: (peak - p.Balance) / peak * 100,
			Days:    p.Exit.Bar.Timestamp.Sub(peakTime).Hours() / 24,
		}
		registered++
		sumPct += dd.Percent
		sumDays += dd.Days
		if dd.Percent > max.Percent {
			max = dd
		}
	}

	if registered > 0 {
		avg = Drawdown{Percent: sumPct / float64(registered), Days: sumDays / float64(registered)}
	}
	return max, avg
}

// annualize converts a total return over [start, end] into a yearly rate.
func annualize(totalReturnPct float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	if days <= 0 {
		return 0
	}
	return (math.Pow(1+totalReturnPct/100, 365/days) - 1) * 100
}

func sharpe(returns []float64) float64 {
	sd := stdev(returns)
	if sd == 0 {
		return 0
	}
	rf := annualRiskFreeRate / tradingDaysPerYear
	return (mean(returns) - rf) / sd * math.Sqrt(tradingDaysPerYear)
}

// sortino is sharpe with downside deviation: only negative returns count
// toward volatility.
func sortino(returns []float64) float64 {
	var downVar float64
	var down int
	for _, r := range returns {
		if r < 0 {
			downVar += r * r
			down++
		}
	}
	if down == 0 {
		return 0
	}
	sd := math.Sqrt(downVar / float64(down))
	if sd == 0 {
		return 0
	}
	rf := annualRiskFreeRate / tradingDaysPerYear
	return (mean(returns) - rf) / sd * math.Sqrt(tradingDaysPerYear)
}

// sqn is the System Quality Number: mean trade P&L over its deviation,
// scaled by sqrt(n). Undefined below two trades.
func sqn(pls []float64) float64 {
	if len(pls) < 2 {
		return 0
	}
	sd := stdev(pls)
	if sd == 0 {
		return 0
	}
	return mean(pls) / sd * math.Sqrt(float64(len(pls)))
}

// kelly is the optimal capital fraction per trade given the win rate (as a
// fraction) and the payoff odds avgWin/avgLoss. Any zero denominator yields
// zero.
func kelly(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 0
	}
	odds := avgWin / avgLoss
	if odds == 0 {
		return 0
	}
	return (odds*winRate - (1 - winRate)) / odds
}

// streaks returns the longest run of consecutive wins and of consecutive
// losses. A zero-P&L trade breaks both runs.
func streaks(pls []float64) (maxWins, maxLosses int) {
	var curWins, curLosses int
	for _, pl := range pls {
		switch {
		case pl > 0:
			curWins++
			curLosses = 0
			if curWins > maxWins {
				maxWins = curWins
			}
		case pl < 0:
			curLosses++
			curWins = 0
			if curLosses > maxLosses {
				maxLosses = curLosses
			}
		default:
			curWins, curLosses = 0, 0
		}
	}
	return maxWins, maxLosses
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the population standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var variance float64
	for _, x := range xs {
		d := x - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)))
}
