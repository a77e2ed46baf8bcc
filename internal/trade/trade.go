// Package trade computes the order ticket shown on the trading page.
package trade

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/johan/sads-console/internal/types"
)

// Side is the outcome a ticket buys.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// ParseSide accepts yes/no in any case. An empty string means yes.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yes":
		return SideYes, nil
	case "no":
		return SideNo, nil
	}
	return "", errors.Errorf("invalid side: %q", s)
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Ticket is the computed order preview. Money fields have two decimals,
// ImpliedEdge has one.
type Ticket struct {
	Side        Side   `json:"side"`
	Amount      string `json:"amount"`
	Price       string `json:"price"`
	Shares      string `json:"shares"`
	MaxPayout   string `json:"maxPayout"`
	Profit      string `json:"profit"`
	ImpliedEdge string `json:"impliedEdge"`
}

// MaxAmount is the largest stake a ticket or bet accepts, in USDC.
var MaxAmount = decimal.NewFromInt(1_000_000_000_000)

// ErrAmountOutOfRange is returned for amounts above MaxAmount or with more
// precision than a decimal can cheaply carry.
var ErrAmountOutOfRange = errors.New("amount out of range")

// ParseAmount reads a USDC amount. Empty or unparseable input is zero; a
// number outside the accepted range is an error.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, nil
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckAmount rejects amounts that are too large or too precise.
func CheckAmount(d decimal.Decimal) error {
	if !types.BoundedDecimal(d) || d.Abs().GreaterThan(MaxAmount) {
		return ErrAmountOutOfRange
	}
	return nil
}

// Compute prices a ticket. Each share pays 1 USDC on resolution; shares are
// zero when amount or price is not positive.
func Compute(side Side, amount decimal.Decimal, yesPrice, noPrice float64) Ticket {
	price := decimal.NewFromFloat(yesPrice)
	if side == SideNo {
		price = decimal.NewFromFloat(noPrice)
	}

	shares := decimal.Zero
	if amount.IsPositive() && price.IsPositive() {
		shares = amount.DivRound(price, 8)
	}
	payout := shares.Mul(one)
	profit := payout.Sub(amount)

	return Ticket{
		Side:        side,
		Amount:      amount.StringFixed(2),
		Price:       price.StringFixed(2),
		Shares:      shares.StringFixed(2),
		MaxPayout:   payout.StringFixed(2),
		Profit:      profit.StringFixed(2),
		ImpliedEdge: one.Sub(price).Mul(hundred).StringFixed(1),
	}
}
