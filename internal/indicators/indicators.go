// Package indicators provides windowed technical-indicator arithmetic over
// price series: SMA, EMA, RSI, MACD, Bollinger bands, and ATR.
//
// Every function returns a slice aligned with its input: output[i] is the
// indicator value at bar i, and positions inside the warm-up window hold NaN
// so callers can index by bar without offset bookkeeping.
package indicators

import (
	"math"

	"backlite/internal/domain"
)

// SMA returns the simple moving average of values over period.
func SMA(values []float64, period int) []float64 {
	out := warmup(len(values), period-1)
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average of values over period, seeded
// with the SMA of the first period values.
func EMA(values []float64, period int) []float64 {
	out := warmup(len(values), period-1)
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out[period-1] = prev

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// RSI returns Wilder's relative strength index of values over period.
// A window with no losses reads 100.
func RSI(values []float64, period int) []float64 {
	out := warmup(len(values), period)
	if period <= 0 || len(values) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal EMA, and
// the histogram (line minus signal).
func MACD(values []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line = make([]float64, len(values))
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i] // NaN propagates through warm-up
	}

	// The signal EMA starts where the line becomes defined.
	signalLine = warmup(len(values), len(values))
	histogram = warmup(len(values), len(values))
	first := slow - 1
	if first < 0 || first >= len(values) {
		return line, signalLine, histogram
	}

	defined := EMA(line[first:], signal)
	for i, v := range defined {
		signalLine[first+i] = v
		histogram[first+i] = line[first+i] - v
	}
	return line, signalLine, histogram
}

// Bollinger returns the middle band (SMA), and the upper and lower bands at
// k standard deviations.
func Bollinger(values []float64, period int, k float64) (middle, upper, lower []float64) {
	middle = SMA(values, period)
	upper = warmup(len(values), period-1)
	lower = warmup(len(values), period-1)
	if period <= 0 || len(values) < period {
		return middle, upper, lower
	}

	for i := period - 1; i < len(values); i++ {
		m := middle[i]
		var variance float64
		for _, v := range values[i-period+1 : i+1] {
			d := v - m
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = m + k*sd
		lower[i] = m - k*sd
	}
	return middle, upper, lower
}

// ATR returns Wilder's average true range of the bars over period.
func ATR(bars []domain.Bar, period int) []float64 {
	out := warmup(len(bars), period)
	if period <= 0 || len(bars) < period+1 {
		return out
	}

	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	var sum float64
	for _, v := range tr[1 : period+1] {
		sum += v
	}
	prev := sum / float64(period)
	out[period] = prev

	for i := period + 1; i < len(bars); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}
	return out
}

// CrossOver reports whether a crossed above b at the last position.
func CrossOver(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	if anyNaN(a[n-2], a[n-1], b[n-2], b[n-1]) {
		return false
	}
	return a[n-2] <= b[n-2] && a[n-1] > b[n-1]
}

// CrossUnder reports whether a crossed below b at the last position.
func CrossUnder(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	if anyNaN(a[n-2], a[n-1], b[n-2], b[n-1]) {
		return false
	}
	return a[n-2] >= b[n-2] && a[n-1] < b[n-1]
}

func anyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// warmup allocates a length-n slice with the first pad positions set to NaN.
func warmup(n, pad int) []float64 {
	out := make([]float64, n)
	if pad > n {
		pad = n
	}
	for i := 0; i < pad; i++ {
		out[i] = math.NaN()
	}
	return out
}
