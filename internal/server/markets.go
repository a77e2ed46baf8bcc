package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/johan/sads-console/internal/candles"
	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/quotes"
	"github.com/johan/sads-console/internal/trade"
)

// MarketView is a catalogue entry with its current quote applied. The
// top-level prices are the quote's, so they are live whenever Quote.IsLive.
type MarketView struct {
	catalog.Market
	Quote quotes.Quote `json:"quote"`
}

func (s *Server) view(m catalog.Market) MarketView {
	q := s.deps.Store.Resolve(m)
	return overlay(m, q)
}

func overlay(m catalog.Market, q quotes.Quote) MarketView {
	m.YesPrice = q.YesPrice
	m.NoPrice = q.NoPrice
	m.ImpliedProbPercent = q.ImpliedProbPercent
	if q.TokenID != "" {
		m.TokenID = q.TokenID
	}
	return MarketView{Market: m, Quote: q}
}

func (s *Server) marketFromPath(w http.ResponseWriter, r *http.Request) (catalog.Market, bool) {
	id := chi.URLParam(r, "id")
	m, ok := s.deps.Catalog.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found: "+id)
	}
	return m, ok
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories":  catalog.Categories(),
		"sortOptions": catalog.SortOptions(),
	})
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = catalog.CategoryAll
	}
	by := r.URL.Query().Get("sort")
	if by == "" {
		by = catalog.SortActive
	}

	markets := s.deps.Catalog.Filter(category)
	byID := make(map[string]quotes.Quote, len(markets))
	for i, m := range markets {
		q := s.deps.Store.Resolve(m)
		byID[m.ID] = q
		markets[i] = overlay(m, q).Market
	}
	catalog.Sort(markets, by)

	out := make([]MarketView, len(markets))
	for i, m := range markets {
		out[i] = MarketView{Market: m, Quote: byID[m.ID]}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	m, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.view(m))
}

// handleMarketPrice refreshes the market now when a refresher is wired. An
// upstream failure is logged and the last known or static quote returned.
func (s *Server) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	m, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	if s.deps.Refresher == nil {
		respondJSON(w, http.StatusOK, s.deps.Store.Resolve(m))
		return
	}
	q, err := s.deps.Refresher.RefreshMarket(r.Context(), m)
	if err != nil {
		s.logger.WithError(err).WithField("market", m.ID).Warn("On-demand refresh failed")
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	m, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	side, err := trade.ParseSide(r.URL.Query().Get("side"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := trade.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := s.deps.Store.Resolve(m)
	t := trade.Compute(side, amount, q.YesPrice, q.NoPrice)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"marketId": m.ID,
		"isLive":   q.IsLive,
		"ticket":   t,
	})
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	m, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}

	count := 0
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		count = n
	}

	q := s.deps.Store.Resolve(m)
	series, err := candles.Generate(m.ID, r.URL.Query().Get("interval"), count, q.YesPrice, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, series)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	m, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	if s.deps.History == nil {
		respondError(w, http.StatusServiceUnavailable, "quote history not configured")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	history, err := s.deps.History.Recent(r.Context(), m.ID, limit)
	if err != nil {
		s.logger.WithError(err).WithField("market", m.ID).Error("Reading quote history failed")
		respondError(w, http.StatusInternalServerError, "failed to read quote history")
		return
	}
	if history == nil {
		history = []quotes.Quote{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"marketId": m.ID,
		"quotes":   history,
	})
}
