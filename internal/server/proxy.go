package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/httpx"
)

// cached serves key from the cache or fills it with fetch. Only successful
// upstream bodies are cached.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, key string, fetch func(ctx context.Context) ([]byte, error)) {
	ctx := r.Context()
	if body, ok, err := s.deps.Cache.Get(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	} else if ok {
		w.Header().Set("X-Cache", "HIT")
		respondRaw(w, http.StatusOK, body)
		return
	}

	body, err := fetch(ctx)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	if err := s.deps.Cache.Set(ctx, key, body, s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	w.Header().Set("X-Cache", "MISS")
	respondRaw(w, http.StatusOK, body)
}

// respondUpstreamError maps upstream failures: not found stays 404, other
// statuses and transport errors become 502.
func (s *Server) respondUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, gamma.ErrNotFound) || httpx.StatusCode(err) == http.StatusNotFound {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.WithError(err).Warn("Upstream request failed")
	respondError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) handleProxySlug(w http.ResponseWriter, r *http.Request) {
	if s.deps.Gamma == nil {
		respondError(w, http.StatusServiceUnavailable, "market data upstream not configured")
		return
	}
	slug := chi.URLParam(r, "slug")
	s.cached(w, r, "slug:"+slug, func(ctx context.Context) ([]byte, error) {
		ev, err := s.deps.Gamma.FetchEventBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ev)
	})
}

func (s *Server) handleProxyGamma(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Gamma == nil {
			respondError(w, http.StatusServiceUnavailable, "market data upstream not configured")
			return
		}
		query := r.URL.Query()
		s.cached(w, r, "gamma:"+path+"?"+query.Encode(), func(ctx context.Context) ([]byte, error) {
			return s.deps.Gamma.Raw(ctx, path, query)
		})
	}
}

func (s *Server) handleProxyClob(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Clob == nil {
			respondError(w, http.StatusServiceUnavailable, "order book upstream not configured")
			return
		}
		token := chi.URLParam(r, "token")
		query := url.Values{"token_id": {token}}
		s.cached(w, r, "clob:"+path+"?"+query.Encode(), func(ctx context.Context) ([]byte, error) {
			return s.deps.Clob.Raw(ctx, path, query)
		})
	}
}
