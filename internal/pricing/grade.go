package pricing

import "github.com/shopspring/decimal"

// gradeBands maps the current/historical-low ratio to a letter grade.
// Bands are inclusive on the upper limit, so a ratio of exactly 1.10
// still earns an A.
var gradeBands = []struct {
	limit decimal.Decimal
	grade string
}{
	{decimal.RequireFromString("1.10"), "A"},
	{decimal.RequireFromString("1.20"), "B+"},
	{decimal.RequireFromString("1.30"), "B"},
	{decimal.RequireFromString("1.50"), "C+"},
	{decimal.RequireFromString("1.80"), "C"},
	{decimal.RequireFromString("2.00"), "D"},
}

// Grade scores how good the current price is against the historical low.
// Prices are in major currency units. A zero current price means there is
// no price data yet; that case is graded A+ on purpose so unpriced games
// are not pushed to the bottom of every listing.
func Grade(current, low decimal.Decimal) string {
	if current.IsZero() {
		return "A+"
	}
	if current.Cmp(low) <= 0 {
		return "A+"
	}

	ratio := decimal.NewFromInt(1)
	if low.IsPositive() {
		ratio = current.Div(low)
	}
	for _, band := range gradeBands {
		if ratio.Cmp(band.limit) <= 0 {
			return band.grade
		}
	}
	return "F"
}
