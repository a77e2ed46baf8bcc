// Package server exposes the console's HTTP API.
package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/johan/sads-console/internal/cache"
	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/prediction"
	"github.com/johan/sads-console/internal/quotes"
	"github.com/johan/sads-console/internal/wallet"
)

// GammaAPI is the part of the Gamma client the proxy uses.
type GammaAPI interface {
	FetchEventBySlug(ctx context.Context, slug string) (*gamma.EventResponse, error)
	Raw(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// ClobAPI is the part of the CLOB client the proxy uses.
type ClobAPI interface {
	Raw(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Refresher fetches one market's live quote on demand.
type Refresher interface {
	RefreshMarket(ctx context.Context, m catalog.Market) (quotes.Quote, error)
}

// History returns recorded quotes for a market, newest first.
type History interface {
	Recent(ctx context.Context, marketID string, limit int) ([]quotes.Quote, error)
}

// Deps are the collaborators the handlers use. Refresher, Stream and the
// upstream clients and History may be nil; their routes then degrade to static data or 503.
type Deps struct {
	Catalog   *catalog.Catalog
	Store     *quotes.Store
	Refresher Refresher
	Gamma     GammaAPI
	Clob      ClobAPI
	Cache     cache.Cache
	Wallet    wallet.Provider
	Predictor *prediction.Generator
	History   History
	Stream    http.Handler

	// WalletToken, when set, is required as a bearer token on the wallet
	// connect, disconnect and bets routes.
	WalletToken string
}

// Server is the HTTP API.
type Server struct {
	cfg      config.ServerConfig
	cacheTTL time.Duration
	deps     Deps
	now      func() time.Time
	logger   *logrus.Entry
	router   chi.Router
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, cacheTTL time.Duration, deps Deps) *Server {
	if deps.Store == nil {
		deps.Store = quotes.NewStore()
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Wallet == nil {
		deps.Wallet = wallet.NewDemo()
	}
	if deps.Predictor == nil {
		deps.Predictor = prediction.NewGenerator(0, 0)
	}
	s := &Server{
		cfg:      cfg,
		cacheTTL: cacheTTL,
		deps:     deps,
		now:      time.Now,
		logger:   logrus.WithField("component", "server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// The websocket route is long-lived and stays outside the timeout.
	if s.deps.Stream != nil {
		r.Method(http.MethodGet, "/api/stream", s.deps.Stream)
	}

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
		}

		r.Get("/health", s.handleHealth)

		r.Route("/api", func(r chi.Router) {
			r.Get("/categories", s.handleCategories)

			r.Get("/markets", s.handleListMarkets)
			r.Route("/markets/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMarket)
				r.Get("/price", s.handleMarketPrice)
				r.Get("/ticket", s.handleTicket)
				r.Get("/candles", s.handleCandles)
				r.Get("/history", s.handleHistory)
			})

			r.Post("/match", s.handleMatch)
			r.Post("/predict", s.handlePredict)

			r.Route("/polymarket", func(r chi.Router) {
				r.Get("/slug/{slug}", s.handleProxySlug)
				r.Get("/events", s.handleProxyGamma("/events"))
				r.Get("/markets", s.handleProxyGamma("/markets"))
				r.Get("/book/{token}", s.handleProxyClob("/book"))
				r.Get("/midpoint/{token}", s.handleProxyClob("/midpoint"))
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", s.handleWalletStatus)
				r.Group(func(r chi.Router) {
					if s.deps.WalletToken != "" {
						r.Use(requireBearer(s.deps.WalletToken))
					}
					r.Post("/connect", s.handleWalletConnect)
					r.Post("/disconnect", s.handleWalletDisconnect)
					r.Post("/bets", s.handlePlaceBet)
				})
			})
		})
	})

	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.Addr).Info("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Warn("Graceful shutdown failed")
		return errors.Wrap(srv.Close(), "closing http server")
	}
	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"markets": s.deps.Catalog.Len(),
		"live":    s.deps.Store.Len(),
		"time":    s.now().UTC(),
	})
}
