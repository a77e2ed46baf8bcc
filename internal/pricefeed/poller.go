// Package pricefeed keeps the quote store fresh by polling Polymarket for
// every catalogue market that has a slug.
package pricefeed

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/outcome"
	"github.com/johan/sads-console/internal/quotes"
	"github.com/johan/sads-console/internal/storage"
)

// EventFetcher looks up a Polymarket event by slug.
type EventFetcher interface {
	FetchEventBySlug(ctx context.Context, slug string) (*gamma.EventResponse, error)
}

// Publisher receives every accepted live quote.
type Publisher interface {
	Publish(q quotes.Quote)
}

// Poller refreshes catalogue quotes on a fixed interval.
type Poller struct {
	fetcher   EventFetcher
	catalog   *catalog.Catalog
	store     *quotes.Store
	storage   storage.Storage
	publisher Publisher

	interval       time.Duration
	requestTimeout time.Duration
	concurrency    int

	now    func() time.Time
	logger *logrus.Entry

	polls    atomic.Int64
	failures atomic.Int64
	accepted atomic.Int64
}

// NewPoller creates a poller. Storage and publisher are optional.
func NewPoller(fetcher EventFetcher, cat *catalog.Catalog, store *quotes.Store, cfg config.FeedConfig) *Poller {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		fetcher:        fetcher,
		catalog:        cat,
		store:          store,
		storage:        storage.NewNullStorage(),
		interval:       interval,
		requestTimeout: 10 * time.Second,
		concurrency:    concurrency,
		now:            time.Now,
		logger:         logrus.WithField("component", "pricefeed"),
	}
}

// WithStorage records accepted quotes in s.
func (p *Poller) WithStorage(s storage.Storage) *Poller {
	if s != nil {
		p.storage = s
	}
	return p
}

// WithPublisher pushes accepted quotes to pub.
func (p *Poller) WithPublisher(pub Publisher) *Poller {
	p.publisher = pub
	return p
}

// WithRequestTimeout bounds each upstream lookup.
func (p *Poller) WithRequestTimeout(d time.Duration) *Poller {
	if d > 0 {
		p.requestTimeout = d
	}
	return p
}

// Run polls immediately, then on every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"interval":    p.interval,
		"concurrency": p.concurrency,
	}).Info("Starting price feed")

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	statusTicker := time.NewTicker(60 * time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down price feed")
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx)
		case <-statusTicker.C:
			p.logStatus()
		}
	}
}

// PollOnce refreshes every live catalogue market and returns how many new
// quotes were accepted. Failures are logged and leave the previous quote.
func (p *Poller) PollOnce(ctx context.Context) int {
	var (
		g       errgroup.Group
		updated atomic.Int64
	)
	g.SetLimit(p.concurrency)

	for _, m := range p.catalog.All() {
		if !m.Live() {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			q, err := p.RefreshMarket(ctx, m)
			if err != nil {
				p.logger.WithError(err).WithField("market", m.ID).Warn("Refresh failed")
				return nil
			}
			if q.IsLive {
				updated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.polls.Add(1)
	return int(updated.Load())
}

// RefreshMarket fetches one market now. The returned quote is always usable:
// it is live when a priced outcome matched, otherwise the newest stored quote
// or the static fallback. err is set only when the upstream lookup failed.
func (p *Poller) RefreshMarket(ctx context.Context, m catalog.Market) (quotes.Quote, error) {
	if !m.Live() {
		return quotes.Fallback(m), nil
	}

	seq := p.store.NextSeq()

	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	ev, err := p.fetcher.FetchEventBySlug(reqCtx, m.PolymarketSlug)
	if err != nil {
		p.failures.Add(1)
		return p.store.Resolve(m), errors.Wrapf(err, "refreshing %s", m.ID)
	}

	c, strategy := outcome.MatchWithStrategy(ev.Candidates(), m.FavoriteOutcome)
	q, ok := quotes.FromMatch(m, ev, c, strategy, seq, p.now())
	if !ok {
		p.logger.WithFields(logrus.Fields{
			"market": m.ID,
			"target": m.FavoriteOutcome,
		}).Debug("No priced outcome matched")
		return p.store.Resolve(m), nil
	}

	if !p.store.Put(q) {
		return p.store.Resolve(m), nil
	}
	p.accepted.Add(1)

	if err := p.storage.Write(&q); err != nil {
		p.logger.WithError(err).WithField("market", m.ID).Error("Failed to record quote")
	}
	if p.publisher != nil {
		p.publisher.Publish(q)
	}
	return q, nil
}

// Stats reports poll counters.
type Stats struct {
	Polls    int64 `json:"polls"`
	Failures int64 `json:"failures"`
	Accepted int64 `json:"accepted"`
	Live     int   `json:"live"`
}

// Stats returns the current counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Polls:    p.polls.Load(),
		Failures: p.failures.Load(),
		Accepted: p.accepted.Load(),
		Live:     p.store.Len(),
	}
}

func (p *Poller) logStatus() {
	s := p.Stats()
	p.logger.WithFields(logrus.Fields{
		"polls":    s.Polls,
		"failures": s.Failures,
		"accepted": s.Accepted,
		"live":     s.Live,
	}).Info("Price feed status")
}
