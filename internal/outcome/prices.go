package outcome

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/johan/sads-console/internal/types"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)

	minPercent = decimal.NewFromInt(math.MinInt32)
	maxPercent = decimal.NewFromInt(math.MaxInt32)
)

// Prices is the normalized view of a price pair.
//
// Unparseable price strings become NaN and are not rejected here; check
// Valid before displaying or encoding.
type Prices struct {
	YesPrice           float64 `json:"yesPrice"`
	NoPrice            float64 `json:"noPrice"`
	ImpliedProbPercent int     `json:"impliedProbPercent"`
}

// NormalizePrices parses a pair and derives the implied probability as
// round-half-up(yes * 100). Rounding runs on the decimal value of the string,
// so "0.005" gives 1 and "0.285" gives 29. Prices whose exponent is out of
// range, or whose percentage does not fit an int, count as unparseable.
func NormalizePrices(pair PricePair) Prices {
	yes, yesOK := parsePrice(pair.Yes())
	no, noOK := parsePrice(pair.No())

	p := Prices{
		YesPrice: math.NaN(),
		NoPrice:  math.NaN(),
	}
	if yesOK {
		pct := yes.Mul(hundred).Add(half).Floor()
		if pct.GreaterThanOrEqual(minPercent) && pct.LessThanOrEqual(maxPercent) {
			p.YesPrice = yes.InexactFloat64()
			p.ImpliedProbPercent = int(pct.IntPart())
		}
	}
	if noOK {
		p.NoPrice = no.InexactFloat64()
	}
	return p
}

// Valid reports whether both prices parsed to finite numbers.
func (p Prices) Valid() bool {
	return isFinite(p.YesPrice) && isFinite(p.NoPrice)
}

// Settled reports whether the market looks resolved (0% or 100%).
func (p Prices) Settled() bool {
	return p.ImpliedProbPercent == 0 || p.ImpliedProbPercent == 100
}

func parsePrice(s string) (decimal.Decimal, bool) {
	return types.ParseDecimal(s)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
