package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/outcome"
	"github.com/johan/sads-console/internal/quotes"
)

func newBoard(t *testing.T, refresh RefreshFunc) (Model, *quotes.Store) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	store := quotes.NewStore()
	return New(context.Background(), cat, store, refresh), store
}

func key(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoard_View(t *testing.T) {
	m, _ := newBoard(t, nil)
	out := m.View()
	assert.Contains(t, out, "SADS Prediction Console")
	assert.Contains(t, out, "All · Most Active")
	assert.Contains(t, out, "dem-nominee-2028")
	assert.Contains(t, out, "20 markets · 0 live")
}

func TestBoard_CategoryAndSort(t *testing.T) {
	m, _ := newBoard(t, nil)

	next, _ := m.Update(key("tab"))
	m = next.(Model)
	assert.Equal(t, "Economy", m.category())
	for _, r := range m.rows {
		assert.Equal(t, "Economy", r.market.Category)
	}

	next, _ = m.Update(key("s"))
	m = next.(Model)
	assert.Equal(t, catalog.SortEnding, m.sortOption().Value)
	assert.Contains(t, m.View(), "Economy · Ending Soon")
}

func TestBoard_TickPicksUpLiveQuotes(t *testing.T) {
	m, store := newBoard(t, nil)

	store.Put(quotes.Quote{MarketID: "dem-nominee-2028", Seq: 1, ImpliedProbPercent: 40,
		YesPrice: 0.4, NoPrice: 0.6, IsLive: true, Strategy: outcome.StrategyKeyword})
	next, cmd := m.Update(tickMsg{})
	m = next.(Model)
	assert.NotNil(t, cmd)

	var found bool
	for _, r := range m.rows {
		if r.market.ID == "dem-nominee-2028" {
			found = true
			assert.True(t, r.quote.IsLive)
			assert.Equal(t, 3, r.delta)
		}
	}
	assert.True(t, found)
	assert.Contains(t, m.View(), "1 live")
}

func TestBoard_Refresh(t *testing.T) {
	calls := 0
	m, _ := newBoard(t, func(context.Context) int {
		calls++
		return 4
	})

	next, cmd := m.Update(key("r"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.refreshing)

	// a second press while refreshing is ignored
	_, again := m.Update(key("r"))
	assert.Nil(t, again)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, 1, calls)
	assert.False(t, m.refreshing)
	assert.Contains(t, m.View(), "(4 updated)")
}

func TestBoard_Quit(t *testing.T) {
	m, _ := newBoard(t, nil)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
