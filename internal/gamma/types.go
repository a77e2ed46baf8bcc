// Package gamma provides a client for the Polymarket Gamma API.
package gamma

import (
	"encoding/json"

	"github.com/johan/sads-console/internal/outcome"
	"github.com/johan/sads-console/internal/types"
)

// Event represents a prediction market event.
type Event struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Active     bool     `json:"active"`
	Closed     bool     `json:"closed"`
	EndDate    string   `json:"endDate,omitempty"`
	Volume24hr float64  `json:"volume24hr"`
	Liquidity  float64  `json:"liquidity"`
	Markets    []Market `json:"markets,omitempty"`
	Tags       []Tag    `json:"tags,omitempty"`
}

// Tag represents a tag on an event or market.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// Market represents one outcome leg of an event.
type Market struct {
	ID             string  `json:"id"`
	Question       string  `json:"question"`
	ConditionID    string  `json:"conditionId"`
	Slug           string  `json:"slug"`
	Outcome        string  `json:"outcome,omitempty"`
	GroupItemTitle string  `json:"groupItemTitle,omitempty"`
	Active         bool    `json:"active"`
	Closed         bool    `json:"closed"`
	LiquidityNum   float64 `json:"liquidityNum"`
	Volume24hr     float64 `json:"volume24hr"`
	EndDate        string  `json:"endDate,omitempty"`

	// Gamma sends these either as arrays or as JSON-encoded strings.
	ClobTokenIds  types.StringList `json:"clobTokenIds,omitempty"`
	OutcomePrices types.StringList `json:"outcomePrices,omitempty"`
	Outcomes      types.StringList `json:"outcomes,omitempty"`
}

// UnmarshalJSON decodes a market leg. A malformed clobTokenIds, outcomePrices
// or outcomes value leaves that field nil instead of failing the whole event.
func (m *Market) UnmarshalJSON(data []byte) error {
	type plain Market
	raw := struct {
		*plain
		ClobTokenIds  json.RawMessage `json:"clobTokenIds"`
		OutcomePrices json.RawMessage `json:"outcomePrices"`
		Outcomes      json.RawMessage `json:"outcomes"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.ClobTokenIds = types.LenientStringList(raw.ClobTokenIds)
	m.OutcomePrices = types.LenientStringList(raw.OutcomePrices)
	m.Outcomes = types.LenientStringList(raw.Outcomes)
	return nil
}

// Candidate adapts the market for outcome matching. The price pair is only set
// when exactly two prices decoded.
func (m *Market) Candidate() outcome.Candidate {
	return outcome.Candidate{
		Question:   m.Question,
		GroupLabel: m.GroupItemTitle,
		Prices:     outcome.PairFromList(m.OutcomePrices),
		TokenIDs:   m.ClobTokenIds,
	}
}

// YesTokenID returns the CLOB token of the first outcome, or "".
func (m *Market) YesTokenID() string {
	return m.ClobTokenIds.First()
}

// EventSummary is the event header returned alongside its markets.
type EventSummary struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// EventResponse is the slug lookup result served to the console.
type EventResponse struct {
	Event   EventSummary `json:"event"`
	Markets []Market     `json:"markets"`
}

// Candidates adapts every market of the event for outcome matching.
func (r *EventResponse) Candidates() []outcome.Candidate {
	out := make([]outcome.Candidate, len(r.Markets))
	for i := range r.Markets {
		out[i] = r.Markets[i].Candidate()
	}
	return out
}

// MarketForCandidate returns the market that produced c, matched by question
// and group label.
func (r *EventResponse) MarketForCandidate(c *outcome.Candidate) *Market {
	if c == nil {
		return nil
	}
	for i := range r.Markets {
		m := &r.Markets[i]
		if m.Question == c.Question && m.GroupItemTitle == c.GroupLabel {
			return m
		}
	}
	return nil
}

// Filter contains query parameters for API requests.
type Filter struct {
	Active  *bool
	Closed  *bool
	TagSlug string
	Slug    string
	Limit   int
	Offset  int
}
