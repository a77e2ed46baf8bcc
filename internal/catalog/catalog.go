// Package catalog holds the static demo market catalogue.
package catalog

import (
	_ "embed"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed markets.yaml
var defaultMarkets []byte

// CategoryAll matches every market in Filter.
const CategoryAll = "All"

var categories = []string{CategoryAll, "Economy", "Politics", "Crypto", "Gaming", "Culture", "Social / Meme"}

// Sort keys accepted by Sort.
const (
	SortActive = "active"
	SortEnding = "ending"
	SortEdge   = "edge"
)

// SortOption is a sort key with its display label.
type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var sortOptions = []SortOption{
	{Value: SortActive, Label: "Most Active"},
	{Value: SortEnding, Label: "Ending Soon"},
	{Value: SortEdge, Label: "Highest Implied Edge"},
}

// Market is one catalogue entry. The prices are the static fallback values.
type Market struct {
	ID                 string  `yaml:"id" json:"id"`
	Category           string  `yaml:"category" json:"category"`
	Title              string  `yaml:"title" json:"title"`
	FavoriteOutcome    string  `yaml:"favorite_outcome" json:"favoriteOutcome"`
	ImpliedProbPercent int     `yaml:"implied_prob_percent" json:"impliedProbPercent"`
	YesPrice           float64 `yaml:"yes_price" json:"yesPrice"`
	NoPrice            float64 `yaml:"no_price" json:"noPrice"`
	Source             string  `yaml:"source" json:"source"`
	SourceURL          string  `yaml:"source_url" json:"sourceUrl"`
	TokenID            string  `yaml:"token_id,omitempty" json:"tokenId,omitempty"`
	PolymarketSlug     string  `yaml:"polymarket_slug,omitempty" json:"polymarketSlug,omitempty"`
}

// Live reports whether the market can be matched against Polymarket.
func (m *Market) Live() bool {
	return m.PolymarketSlug != ""
}

// Catalog is an immutable, ordered set of markets.
type Catalog struct {
	markets []Market
	byID    map[string]int
}

// Default returns the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultMarkets)
}

// Parse decodes a YAML catalogue and checks every entry.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Markets []Market `yaml:"markets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing catalogue")
	}

	c := &Catalog{
		markets: doc.Markets,
		byID:    make(map[string]int, len(doc.Markets)),
	}
	for i, m := range doc.Markets {
		if m.ID == "" {
			return nil, errors.Errorf("market %d: missing id", i)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, errors.Errorf("market %s: duplicate id", m.ID)
		}
		if !validCategory(m.Category) || m.Category == CategoryAll {
			return nil, errors.Errorf("market %s: unknown category %q", m.ID, m.Category)
		}
		if m.YesPrice < 0 || m.YesPrice > 1 || m.NoPrice < 0 || m.NoPrice > 1 {
			return nil, errors.Errorf("market %s: prices must be within [0,1]", m.ID)
		}
		if m.ImpliedProbPercent < 0 || m.ImpliedProbPercent > 100 {
			return nil, errors.Errorf("market %s: implied probability out of range", m.ID)
		}
		c.byID[m.ID] = i
	}
	return c, nil
}

// Categories returns the category filter values, "All" first.
func Categories() []string {
	return append([]string(nil), categories...)
}

// SortOptions returns the supported sort keys.
func SortOptions() []SortOption {
	return append([]SortOption(nil), sortOptions...)
}

// All returns a copy of every market in catalogue order.
func (c *Catalog) All() []Market {
	return append([]Market(nil), c.markets...)
}

// Len returns the number of markets.
func (c *Catalog) Len() int { return len(c.markets) }

// Get returns the market with the given id.
func (c *Catalog) Get(id string) (Market, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Market{}, false
	}
	return c.markets[i], true
}

// Filter returns the markets of a category in catalogue order. "All" and ""
// return everything; an unknown category returns nothing.
func (c *Catalog) Filter(category string) []Market {
	if category == "" || category == CategoryAll {
		return c.All()
	}
	var out []Market
	for _, m := range c.markets {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// Sort orders markets in place and stably. Unknown keys leave the order alone.
func Sort(markets []Market, by string) {
	var less func(a, b *Market) bool
	switch by {
	case SortActive:
		less = func(a, b *Market) bool { return a.ImpliedProbPercent > b.ImpliedProbPercent }
	case SortEnding:
		less = func(a, b *Market) bool { return a.ID < b.ID }
	case SortEdge:
		less = func(a, b *Market) bool { return 1-a.YesPrice < 1-b.YesPrice }
	default:
		return
	}
	sort.SliceStable(markets, func(i, j int) bool { return less(&markets[i], &markets[j]) })
}

// ValidSort reports whether by is a known sort key.
func ValidSort(by string) bool {
	for _, o := range sortOptions {
		if o.Value == by {
			return true
		}
	}
	return false
}

func validCategory(category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
