// Package app wires configuration into the running console backend.
package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/johan/sads-console/internal/cache"
	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/clob"
	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/prediction"
	"github.com/johan/sads-console/internal/pricefeed"
	"github.com/johan/sads-console/internal/quotes"
	"github.com/johan/sads-console/internal/server"
	"github.com/johan/sads-console/internal/storage"
	"github.com/johan/sads-console/internal/stream"
	"github.com/johan/sads-console/internal/wallet"
	"github.com/johan/sads-console/internal/ws"
)

// Service holds every long-lived component of the backend.
type Service struct {
	config *config.Config
	logger *logrus.Entry

	Catalog *catalog.Catalog
	Store   *quotes.Store
	Gamma   *gamma.Client
	Clob    *clob.Client
	Storage storage.Storage
	Cache   cache.Cache
	Wallet  wallet.Provider
	Hub     *stream.Hub
	Feed    *pricefeed.Poller
	Server  *server.Server
}

// NewService builds the service from cfg. Close releases what it opened.
func NewService(cfg *config.Config) (*Service, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, errors.Wrap(err, "loading catalogue")
	}

	s := &Service{
		config:  cfg,
		logger:  logrus.WithField("component", "app"),
		Catalog: cat,
		Store:   quotes.NewStore().WithMaxAge(cfg.Feed.QuoteMaxAge()),
		Hub:     stream.NewHub(),
	}

	httpClient := &http.Client{Timeout: cfg.Polymarket.RequestTimeout}
	s.Gamma = gamma.NewClient(httpClient).
		WithBaseURL(cfg.Polymarket.GammaURL).
		WithRetries(cfg.Polymarket.Retries)
	s.Clob = clob.NewClient(httpClient).
		WithBaseURL(cfg.Polymarket.ClobURL).
		WithRetries(cfg.Polymarket.Retries)

	if s.Storage, err = storage.New(cfg.Storage); err != nil {
		return nil, errors.Wrap(err, "creating storage")
	}
	if s.Cache, err = cache.New(cfg.Cache); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "creating cache")
	}
	if s.Wallet, err = wallet.New(cfg.Wallet); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "creating wallet")
	}

	s.Feed = pricefeed.NewPoller(s.Gamma, cat, s.Store, cfg.Feed).
		WithStorage(s.Storage).
		WithPublisher(s.Hub).
		WithRequestTimeout(cfg.Polymarket.RequestTimeout)

	var history server.History
	if h, ok := s.Storage.(server.History); ok {
		history = h
	}

	s.Server = server.New(cfg.Server, cfg.Cache.TTL, server.Deps{
		Catalog:   cat,
		Store:     s.Store,
		Refresher: s.Feed,
		Gamma:     s.Gamma,
		Clob:      s.Clob,
		Cache:     s.Cache,
		Wallet:    s.Wallet,
		Predictor: prediction.NewGenerator(cfg.Prediction.MinDelay, cfg.Prediction.Jitter),
		History:   history,
		Stream:    stream.NewHandler(s.Hub, s.Store, cfg.Stream.SendBuffer, cfg.Stream.WriteTimeout, originChecker(cfg.Server.CORSOrigins)),

		WalletToken: cfg.Wallet.APIToken,
	})

	return s, nil
}

// originChecker accepts websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	for _, o := range origins {
		if o == "*" {
			return nil
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Run serves HTTP and, when enabled, polls prices until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"markets": s.Catalog.Len(),
		"feed":    s.config.Feed.Enabled,
		"storage": s.config.Storage.Type,
		"cache":   s.config.Cache.Type,
		"wallet":  s.config.Wallet.Mode,
	}).Info("Starting console backend")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Server.Run(ctx)
	})
	if s.config.Feed.Enabled {
		g.Go(func() error {
			if err := s.Feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		s.Hub.Close()
		return nil
	})

	return g.Wait()
}

// Close releases storage and cache.
func (s *Service) Close() {
	if s.Storage != nil {
		if err := s.Storage.Close(); err != nil {
			s.logger.WithError(err).Warn("Closing storage")
		}
	}
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			s.logger.WithError(err).Warn("Closing cache")
		}
	}
}

// NewFeedClient builds a CLOB market feed client from the websocket settings.
func NewFeedClient(cfg config.WebSocketConfig, handler ws.MessageHandler) *ws.Client {
	c := ws.NewClient(handler).WithLogger(logrus.WithField("component", "ws"))
	if cfg.URL != "" {
		c.WithURL(cfg.URL)
	}
	rc := ws.DefaultReconnectConfig()
	if cfg.InitialBackoff > 0 {
		rc.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		rc.MaxBackoff = cfg.MaxBackoff
	}
	if cfg.BackoffFactor > 0 {
		rc.BackoffFactor = cfg.BackoffFactor
	}
	return c.WithReconnectConfig(rc)
}
