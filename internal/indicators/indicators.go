// Package indicators provides the price-derived calculations the trade
// filter runs on: SMA, RSI and ATR. All three are pure functions of their
// input series — no hidden state, deterministic.
package indicators

import (
	"errors"
	"math"
)

// ErrNotEnoughData is returned when a series is shorter than the indicator's
// required history. Callers treat it as "indicator unavailable", never as a
// fatal condition.
var ErrNotEnoughData = errors.New("not enough data points")

// SMA computes the arithmetic mean of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if period <= 0 || len(closes) < period {
		return 0, ErrNotEnoughData
	}

	total := 0.0
	for _, c := range closes[len(closes)-period:] {
		total += c
	}
	return total / float64(period), nil
}

// RSI computes the Relative Strength Index over the last period differences.
// Positive diffs are summed as gains, absolute negative diffs as losses, and
// each is averaged over the period. A zero average loss yields 100 (fully
// bullish) rather than a division by zero. Requires period+1 closes.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 || len(closes) < period+1 {
		return 0, ErrNotEnoughData
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		if diff >= 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}

	if losses == 0 {
		return 100, nil
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// ATR computes the Average True Range over the last period bars, where the
// true range of bar i is the greatest of high−low, |high−prevClose| and
// |low−prevClose|. Requires period+1 bars.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0, ErrNotEnoughData
	}

	total := 0.0
	for i := n - period; i < n; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		total += tr
	}
	return total / float64(period), nil
}
