package quotes

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/outcome"
)

var demMarket = catalog.Market{
	ID:                 "dem-nominee-2028",
	FavoriteOutcome:    "Gavin Newsom",
	ImpliedProbPercent: 37,
	YesPrice:           0.37,
	NoPrice:            0.63,
	PolymarketSlug:     "2028-democratic-presidential-nomination",
}

func TestFallback(t *testing.T) {
	q := Fallback(demMarket)
	assert.Equal(t, "dem-nominee-2028", q.MarketID)
	assert.False(t, q.IsLive)
	assert.Equal(t, 37, q.ImpliedProbPercent)
	assert.Equal(t, outcome.StrategyNone, q.Strategy)
	assert.False(t, q.Settled)
}

func TestFromMatch(t *testing.T) {
	ev := &gamma.EventResponse{Event: gamma.EventSummary{Title: "Democratic Nominee 2028"}}
	c := &outcome.Candidate{
		Question: "Will Gavin Newsom win?",
		Prices:   &outcome.PricePair{"0.41", "0.59"},
		TokenIDs: []string{"yes-token", "no-token"},
	}
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	q, ok := FromMatch(demMarket, ev, c, outcome.StrategyKeyword, 7, now)
	require.True(t, ok)
	assert.True(t, q.IsLive)
	assert.Equal(t, 41, q.ImpliedProbPercent)
	assert.Equal(t, "yes-token", q.TokenID)
	assert.Equal(t, "Democratic Nominee 2028", q.EventTitle)
	assert.Equal(t, uint64(7), q.Seq)
	assert.Equal(t, time.UTC, q.ObservedAt.Location())
}

func TestFromMatch_Unusable(t *testing.T) {
	_, ok := FromMatch(demMarket, nil, nil, outcome.StrategyNone, 1, time.Now())
	assert.False(t, ok)

	bad := &outcome.Candidate{Prices: &outcome.PricePair{"n/a", "0.5"}}
	_, ok = FromMatch(demMarket, nil, bad, outcome.StrategyFallback, 1, time.Now())
	assert.False(t, ok)
}

func TestStore_PutKeepsNewest(t *testing.T) {
	s := NewStore()
	older := s.NextSeq()
	newer := s.NextSeq()

	assert.True(t, s.Put(Quote{MarketID: "m", Seq: newer, ImpliedProbPercent: 50}))
	assert.False(t, s.Put(Quote{MarketID: "m", Seq: older, ImpliedProbPercent: 10}), "late response must not win")
	assert.False(t, s.Put(Quote{MarketID: "m", Seq: newer, ImpliedProbPercent: 20}))

	q, ok := s.Get("m")
	require.True(t, ok)
	assert.Equal(t, 50, q.ImpliedProbPercent)

	assert.True(t, s.Put(Quote{MarketID: "other", Seq: older}))
	assert.Equal(t, 2, s.Len())
}

func TestStore_Resolve(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Resolve(demMarket).IsLive)

	s.Put(Quote{MarketID: demMarket.ID, Seq: s.NextSeq(), IsLive: true, ImpliedProbPercent: 40})
	q := s.Resolve(demMarket)
	assert.True(t, q.IsLive)
	assert.Equal(t, 40, q.ImpliedProbPercent)
}

func TestStore_ExpiresStaleQuotes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore().WithMaxAge(90 * time.Second)
	s.now = func() time.Time { return now }

	s.Put(Quote{MarketID: demMarket.ID, Seq: s.NextSeq(), IsLive: true, ImpliedProbPercent: 40, ObservedAt: now})

	now = now.Add(90 * time.Second)
	assert.True(t, s.Resolve(demMarket).IsLive)
	assert.Len(t, s.Snapshot(), 1)

	now = now.Add(time.Second)
	q := s.Resolve(demMarket)
	assert.False(t, q.IsLive)
	assert.Equal(t, 37, q.ImpliedProbPercent)
	_, ok := s.Get(demMarket.ID)
	assert.False(t, ok)
	assert.Empty(t, s.Snapshot())

	// A fresh observation brings it back.
	s.Put(Quote{MarketID: demMarket.ID, Seq: s.NextSeq(), IsLive: true, ImpliedProbPercent: 42, ObservedAt: now})
	assert.Equal(t, 42, s.Resolve(demMarket).ImpliedProbPercent)
}

func TestStore_NoMaxAgeNeverExpires(t *testing.T) {
	s := NewStore()
	s.Put(Quote{MarketID: demMarket.ID, Seq: s.NextSeq(), IsLive: true, ObservedAt: time.Unix(0, 0)})
	assert.True(t, s.Resolve(demMarket).IsLive)
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := s.NextSeq()
			s.Put(Quote{MarketID: "m", Seq: seq})
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	q, ok := s.Get("m")
	require.True(t, ok)
	assert.Equal(t, uint64(50), q.Seq)
}
