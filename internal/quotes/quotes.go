// Package quotes keeps the latest price quote per catalogue market.
package quotes

import (
	"sync"
	"time"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/outcome"
)

// Quote is the price shown for a catalogue market, live or static.
type Quote struct {
	MarketID           string           `json:"marketId"`
	Slug               string           `json:"slug,omitempty"`
	EventTitle         string           `json:"eventTitle,omitempty"`
	Question           string           `json:"question,omitempty"`
	GroupLabel         string           `json:"groupLabel,omitempty"`
	TokenID            string           `json:"tokenId,omitempty"`
	YesPrice           float64          `json:"yesPrice"`
	NoPrice            float64          `json:"noPrice"`
	ImpliedProbPercent int              `json:"impliedProbPercent"`
	IsLive             bool             `json:"isLive"`
	Settled            bool             `json:"settled"`
	Strategy           outcome.Strategy `json:"strategy"`
	Seq                uint64           `json:"seq"`
	ObservedAt         time.Time        `json:"observedAt"`
}

// Fallback builds the static quote from the catalogue entry.
func Fallback(m catalog.Market) Quote {
	return Quote{
		MarketID:           m.ID,
		Slug:               m.PolymarketSlug,
		YesPrice:           m.YesPrice,
		NoPrice:            m.NoPrice,
		ImpliedProbPercent: m.ImpliedProbPercent,
		Settled:            m.ImpliedProbPercent == 0 || m.ImpliedProbPercent == 100,
		Strategy:           outcome.StrategyNone,
	}
}

// FromMatch builds a live quote from a matched candidate. It returns false
// when there is no candidate or its prices do not parse, in which case the
// caller keeps showing the fallback.
func FromMatch(m catalog.Market, ev *gamma.EventResponse, c *outcome.Candidate, strategy outcome.Strategy, seq uint64, now time.Time) (Quote, bool) {
	if c == nil || c.Prices == nil {
		return Quote{}, false
	}
	p := outcome.NormalizePrices(*c.Prices)
	if !p.Valid() {
		return Quote{}, false
	}

	q := Quote{
		MarketID:           m.ID,
		Slug:               m.PolymarketSlug,
		Question:           c.Question,
		GroupLabel:         c.GroupLabel,
		TokenID:            c.TokenIDs.First(),
		YesPrice:           p.YesPrice,
		NoPrice:            p.NoPrice,
		ImpliedProbPercent: p.ImpliedProbPercent,
		IsLive:             true,
		Settled:            p.Settled(),
		Strategy:           strategy,
		Seq:                seq,
		ObservedAt:         now.UTC(),
	}
	if ev != nil {
		q.EventTitle = ev.Event.Title
	}
	return q, true
}

// Store holds the newest live quote per market. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	seq    uint64
	maxAge time.Duration
	now    func() time.Time
}

// NewStore creates an empty store whose quotes never expire.
func NewStore() *Store {
	return &Store{quotes: make(map[string]Quote), now: time.Now}
}

// WithMaxAge makes quotes observed more than d ago invisible to Get, Resolve
// and Snapshot. Zero disables expiry.
func (s *Store) WithMaxAge(d time.Duration) *Store {
	s.maxAge = d
	return s
}

func (s *Store) fresh(q Quote) bool {
	return s.maxAge <= 0 || s.now().Sub(q.ObservedAt) <= s.maxAge
}

// NextSeq allocates a sequence number. Allocate before issuing the upstream
// request so that responses are ordered by request, not by arrival.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Put stores q unless a quote with the same or a higher sequence number is
// already held for that market. It reports whether q was kept.
func (s *Store) Put(q Quote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.quotes[q.MarketID]; ok && cur.Seq >= q.Seq {
		return false
	}
	s.quotes[q.MarketID] = q
	return true
}

// Get returns the stored quote for a market if it has not expired.
func (s *Store) Get(marketID string) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[marketID]
	if !ok || !s.fresh(q) {
		return Quote{}, false
	}
	return q, true
}

// Resolve returns the stored live quote, or the catalogue fallback when there
// is none or it has expired.
func (s *Store) Resolve(m catalog.Market) Quote {
	if q, ok := s.Get(m.ID); ok {
		return q
	}
	return Fallback(m)
}

// Snapshot returns a copy of every unexpired quote.
func (s *Store) Snapshot() map[string]Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Quote, len(s.quotes))
	for k, v := range s.quotes {
		if s.fresh(v) {
			out[k] = v
		}
	}
	return out
}

// Len returns the number of stored quotes, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
