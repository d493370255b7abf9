package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend classifies the short-term price direction of a game.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// PricePoint is one (timestamp, major-unit price) sample of a series.
type PricePoint struct {
	At    time.Time
	Price decimal.Decimal
}

var (
	hundred      = decimal.NewFromInt(100)
	trendCutover = decimal.NewFromInt(5)
)

// Forecast classifies the trend of a price series. Points must be in
// ascending time order; only the most recent 7 points are considered, no
// matter how much history the caller supplies. Fewer than 2 points, or a
// zero first price, always reads as stable.
func Forecast(points []PricePoint) Trend {
	if len(points) < 2 {
		return TrendStable
	}
	window := points
	if len(window) > 7 {
		window = window[len(window)-7:]
	}

	first := window[0].Price
	last := window[len(window)-1].Price
	if !first.IsPositive() {
		return TrendStable
	}

	changePct := last.Sub(first).Div(first).Mul(hundred)
	switch {
	case changePct.Cmp(trendCutover.Neg()) < 0:
		return TrendFalling
	case changePct.Cmp(trendCutover) > 0:
		return TrendRising
	default:
		return TrendStable
	}
}
