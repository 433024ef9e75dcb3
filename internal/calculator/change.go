package calculator

import (
	"errors"

	"CryptoDash/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ErrNoBaseline is returned when the previous value cannot serve as a baseline.
var ErrNoBaseline = errors.New("previous value must be positive")

// PercentChange returns (current - previous) / previous * 100.
func PercentChange(previous, current decimal.Decimal) (float64, error) {
	if !previous.IsPositive() {
		return 0, ErrNoBaseline
	}
	pct := current.Sub(previous).Div(previous).Mul(hundred)
	f, _ := pct.Float64()
	return f, nil
}

// ClassifyTrend maps a percentage change to a trend label. An unavailable
// change is flat.
func ClassifyTrend(pct float64, available bool) model.Trend {
	switch {
	case !available:
		return model.TrendFlat
	case pct > 0:
		return model.TrendUp
	case pct < 0:
		return model.TrendDown
	default:
		return model.TrendFlat
	}
}
