// Package outcome picks the Polymarket outcome leg that corresponds to a
// human-written favourite label and turns its prices into an implied
// probability.
//
// Everything in this package is pure: no I/O, no shared state. A missing
// match is reported as nil, never as an error.
package outcome

import (
	"encoding/json"

	"github.com/johan/sads-console/internal/types"
)

// PricePair holds the YES and NO prices of one outcome leg as decimal strings.
type PricePair [2]string

// Yes returns the YES price string.
func (p PricePair) Yes() string { return p[0] }

// No returns the NO price string.
func (p PricePair) No() string { return p[1] }

// PairFromList returns a pair when the list holds exactly two prices.
func PairFromList(l types.StringList) *PricePair {
	if len(l) != 2 {
		return nil
	}
	return &PricePair{l[0], l[1]}
}

// Candidate is one tradable outcome leg returned by the market data source.
type Candidate struct {
	Question   string     `json:"question"`
	GroupLabel string     `json:"groupItemTitle,omitempty"`
	Prices     *PricePair `json:"outcomePrices,omitempty"`

	// TokenIDs is carried through untouched so callers can find the CLOB
	// token of the selected leg. Matching ignores it.
	TokenIDs types.StringList `json:"clobTokenIds,omitempty"`
}

// HasPrices reports whether the candidate carries a usable price pair.
func (c *Candidate) HasPrices() bool {
	return c != nil && c.Prices != nil
}

// UnmarshalJSON decodes the upstream shape, where outcomePrices may be a
// literal array or a JSON-encoded string. A price list that does not decode to
// exactly two entries leaves Prices nil.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question   string          `json:"question"`
		GroupLabel string          `json:"groupItemTitle"`
		Prices     json.RawMessage `json:"outcomePrices"`
		TokenIDs   json.RawMessage `json:"clobTokenIds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Candidate{Question: raw.Question, GroupLabel: raw.GroupLabel}

	if len(raw.Prices) > 0 {
		var prices types.StringList
		if err := json.Unmarshal(raw.Prices, &prices); err == nil {
			c.Prices = PairFromList(prices)
		}
	}
	if len(raw.TokenIDs) > 0 {
		var ids types.StringList
		if err := json.Unmarshal(raw.TokenIDs, &ids); err == nil {
			c.TokenIDs = ids
		}
	}
	return nil
}

// Strategy names the rule that selected a candidate.
type Strategy string

const (
	StrategyNone        Strategy = "none"
	StrategyPriceTarget Strategy = "price_target"
	StrategyKeyword     Strategy = "keyword"
	StrategyFallback    Strategy = "fallback"
)
