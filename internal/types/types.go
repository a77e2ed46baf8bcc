// Package types provides shared type definitions for the Polymarket-facing packages.
package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceLevel represents a single price level in an order book.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// StringList is a list of strings that Polymarket sometimes sends as a JSON
// array and sometimes as a JSON string holding an encoded array
// (outcomePrices, clobTokenIds, outcomes). Numbers inside the array are kept
// in their textual form.
type StringList []string

// UnmarshalJSON accepts `["a","b"]`, `[0.1, 0.9]`, `"[\"a\",\"b\"]"`, `""` and `null`.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		return l.UnmarshalJSON([]byte(s))
	}

	if data[0] != '[' {
		return errors.Errorf("string list: unexpected token %q", truncate(data, 20))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "string list")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return errors.Wrap(err, "string list item")
			}
			out = append(out, s)
			continue
		}
		var f float64
		if err := json.Unmarshal(item, &f); err != nil {
			return errors.Errorf("string list: item %q is neither string nor number", truncate(item, 20))
		}
		out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
	}
	*l = out
	return nil
}

// LenientStringList decodes data like StringList but yields nil instead of an
// error, so one malformed field does not fail the enclosing object.
func LenientStringList(data []byte) StringList {
	var l StringList
	if err := l.UnmarshalJSON(data); err != nil {
		return nil
	}
	return l
}

// First returns the first element or "" when the list is empty.
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

func truncate(data []byte, maxLen int) string {
	if len(data) <= maxLen {
		return string(data)
	}
	return string(data[:maxLen]) + "..."
}

// BestBid returns the highest price among levels, or "". Levels are compared
// numerically since the API does not promise an order; unparseable prices are
// skipped.
func BestBid(levels []PriceLevel) string {
	return bestLevel(levels, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

// BestAsk returns the lowest price among levels, or "".
func BestAsk(levels []PriceLevel) string {
	return bestLevel(levels, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

const (
	// MaxDecimalExponent bounds the base-10 exponent of accepted decimals.
	MaxDecimalExponent = 20

	maxCoefficientBits = 128
)

// BoundedDecimal reports whether d has a small exponent and coefficient.
// Decimal arithmetic rescales to the larger exponent, so "1e5000000" would
// expand to millions of digits.
func BoundedDecimal(d decimal.Decimal) bool {
	e := d.Exponent()
	if e < -MaxDecimalExponent || e > MaxDecimalExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxCoefficientBits
}

// ParseDecimal parses s as a base-10 decimal and rejects values outside the
// BoundedDecimal range.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !BoundedDecimal(d) {
		return decimal.Zero, false
	}
	return d, true
}

func bestLevel(levels []PriceLevel, better func(a, b decimal.Decimal) bool) string {
	var (
		best    decimal.Decimal
		bestStr string
	)
	for _, l := range levels {
		p, ok := ParseDecimal(l.Price)
		if !ok {
			continue
		}
		if bestStr == "" || better(p, best) {
			best, bestStr = p, l.Price
		}
	}
	return bestStr
}
