// Package tui renders the live quote board used by `sads watch`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/quotes"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	liveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	staticStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	settledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))
)

// RefreshFunc polls upstream once and returns the number of accepted quotes.
type RefreshFunc func(ctx context.Context) int

type tickMsg time.Time

type refreshedMsg struct {
	accepted int
	at       time.Time
}

// Model is the bubbletea model of the board.
type Model struct {
	catalog *catalog.Catalog
	store   *quotes.Store
	refresh RefreshFunc
	ctx     context.Context

	categoryIdx int
	sortIdx     int

	rows        []row
	prev        map[string]int
	deltas      map[string]int
	lastRefresh time.Time
	accepted    int
	refreshing  bool
	now         func() time.Time
}

type row struct {
	market catalog.Market
	quote  quotes.Quote
	delta  int
}

// New creates a board over the catalogue and store. refresh may be nil.
func New(ctx context.Context, cat *catalog.Catalog, store *quotes.Store, refresh RefreshFunc) Model {
	m := Model{
		catalog: cat,
		store:   store,
		refresh: refresh,
		ctx:     ctx,
		prev:    make(map[string]int),
		deltas:  make(map[string]int),
		now:     time.Now,
	}
	m.reload()
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refreshCmd() tea.Cmd {
	if m.refresh == nil {
		return nil
	}
	ctx, refresh, now := m.ctx, m.refresh, m.now
	return func() tea.Msg {
		n := refresh(ctx)
		return refreshedMsg{accepted: n, at: now()}
	}
}

// Init starts the redraw ticker and an initial refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.refreshCmd())
}

// Update handles keys, ticks and refresh results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "c":
			m.categoryIdx = (m.categoryIdx + 1) % len(catalog.Categories())
			m.reload()
		case "s":
			m.sortIdx = (m.sortIdx + 1) % len(catalog.SortOptions())
			m.reload()
		case "r":
			if !m.refreshing && m.refresh != nil {
				m.refreshing = true
				return m, m.refreshCmd()
			}
		}

	case tickMsg:
		m.reload()
		return m, tickCmd()

	case refreshedMsg:
		m.refreshing = false
		m.accepted = msg.accepted
		m.lastRefresh = msg.at
		m.reload()
	}
	return m, nil
}

func (m *Model) category() string {
	return catalog.Categories()[m.categoryIdx]
}

func (m *Model) sortOption() catalog.SortOption {
	return catalog.SortOptions()[m.sortIdx]
}

// reload rebuilds the rows from the store. A market keeps showing its last
// percent change until the next one.
func (m *Model) reload() {
	markets := m.catalog.Filter(m.category())
	byID := make(map[string]quotes.Quote, len(markets))
	for i, mk := range markets {
		q := m.store.Resolve(mk)
		byID[mk.ID] = q
		markets[i].ImpliedProbPercent = q.ImpliedProbPercent
		markets[i].YesPrice = q.YesPrice
		markets[i].NoPrice = q.NoPrice
	}
	catalog.Sort(markets, m.sortOption().Value)

	rows := make([]row, len(markets))
	for i, mk := range markets {
		q := byID[mk.ID]
		if p, ok := m.prev[mk.ID]; ok && p != q.ImpliedProbPercent {
			m.deltas[mk.ID] = q.ImpliedProbPercent - p
		}
		m.prev[mk.ID] = q.ImpliedProbPercent
		rows[i] = row{market: mk, quote: q, delta: m.deltas[mk.ID]}
	}
	m.rows = rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// View renders the board.
func (m Model) View() string {
	var b strings.Builder

	live := 0
	for _, r := range m.rows {
		if r.quote.IsLive {
			live++
		}
	}

	b.WriteString(headerStyle.Render("SADS Prediction Console"))
	b.WriteString("  ")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s", m.category(), m.sortOption().Label)))
	b.WriteString("\n\n")

	var t strings.Builder
	fmt.Fprintf(&t, "%-24s %-34s %-26s %5s %6s %6s  %-6s %s\n",
		"MARKET", "TITLE", "OUTCOME", "PROB", "YES", "NO", "SOURCE", "MATCH")
	for _, r := range m.rows {
		line := fmt.Sprintf("%-24s %-34s %-26s %4d%% %6.3f %6.3f",
			truncate(r.market.ID, 24),
			truncate(r.market.Title, 34),
			truncate(r.market.FavoriteOutcome, 26),
			r.quote.ImpliedProbPercent,
			r.quote.YesPrice,
			r.quote.NoPrice)

		source := staticStyle.Render("static")
		if r.quote.IsLive {
			source = liveStyle.Render("live  ")
		}
		match := string(r.quote.Strategy)
		switch {
		case r.delta > 0:
			match += " " + upStyle.Render(fmt.Sprintf("▲%d", r.delta))
		case r.delta < 0:
			match += " " + downStyle.Render(fmt.Sprintf("▼%d", -r.delta))
		}

		if r.quote.Settled {
			line = settledStyle.Render(line)
		}
		fmt.Fprintf(&t, "%s  %s %s\n", line, source, match)
	}
	b.WriteString(borderStyle.Render(strings.TrimRight(t.String(), "\n")))
	b.WriteString("\n")

	status := fmt.Sprintf("%d markets · %d live", len(m.rows), live)
	if !m.lastRefresh.IsZero() {
		status += fmt.Sprintf(" · last refresh %s (%d updated)", m.lastRefresh.Format("15:04:05"), m.accepted)
	}
	if m.refreshing {
		status += " · refreshing…"
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: category · s: sort · r: refresh · q: quit"))
	b.WriteString("\n")
	return b.String()
}
