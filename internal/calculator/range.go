package calculator

import (
	"errors"
	"math"
)

// CalculateRange scans the last `period` prices and returns the high and low.
// When fewer prices are available the whole slice is used.
func CalculateRange(prices []float64, period int) (high, low float64, err error) {
	if len(prices) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	if period <= 0 {
		return 0, 0, errors.New("period must be positive")
	}
	n := len(prices)
	start := n - period
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if prices[i] > high {
			high = prices[i]
		}
		if prices[i] < low {
			low = prices[i]
		}
	}
	return high, low, nil
}
