package gamma

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/johan/sads-console/internal/httpx"
)

const (
	// DefaultBaseURL is the base URL for the Gamma API.
	DefaultBaseURL = "https://gamma-api.polymarket.com"
)

// ErrNotFound is returned when a slug lookup yields no event.
var ErrNotFound = errors.New("event not found")

// Client is an HTTP client for the Gamma API.
type Client struct {
	http *httpx.Client
}

// NewClient creates a new Gamma API client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{http: httpx.New(httpClient, DefaultBaseURL)}
}

// WithBaseURL sets a custom base URL for the client.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.http.SetBaseURL(baseURL)
	return c
}

// WithRetries enables retries on transport errors, 429 and 5xx.
func (c *Client) WithRetries(n int) *Client {
	c.http.SetRetryCount(n)
	return c
}

// FetchEvents fetches events from the Gamma API.
func (c *Client) FetchEvents(ctx context.Context, filter *Filter) ([]Event, error) {
	var events []Event
	if err := c.http.GetJSON(ctx, "/events", buildQuery(filter), &events); err != nil {
		return nil, errors.Wrap(err, "fetching events")
	}
	return events, nil
}

// FetchMarkets fetches markets from the Gamma API.
func (c *Client) FetchMarkets(ctx context.Context, filter *Filter) ([]Market, error) {
	var markets []Market
	if err := c.http.GetJSON(ctx, "/markets", buildQuery(filter), &markets); err != nil {
		return nil, errors.Wrap(err, "fetching markets")
	}
	return markets, nil
}

// FetchEventBySlug fetches one event with its markets.
func (c *Client) FetchEventBySlug(ctx context.Context, slug string) (*EventResponse, error) {
	if slug == "" {
		return nil, errors.New("empty slug")
	}

	events, err := c.FetchEvents(ctx, &Filter{Slug: slug})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "slug %s", slug)
	}

	ev := events[0]
	return &EventResponse{
		Event:   EventSummary{Title: ev.Title, Slug: ev.Slug},
		Markets: ev.Markets,
	}, nil
}

// Raw returns the undecoded body of a GET, for pass-through proxying.
func (c *Client) Raw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, err := c.http.Get(ctx, path, query)
	if err != nil {
		return nil, errors.Wrapf(err, "proxying %s", path)
	}
	return body, nil
}

// buildQuery builds URL query parameters from a Filter.
func buildQuery(f *Filter) url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	if f.Active != nil {
		v.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Closed != nil {
		v.Set("closed", strconv.FormatBool(*f.Closed))
	}
	if f.TagSlug != "" {
		v.Set("tag_slug", f.TagSlug)
	}
	if f.Slug != "" {
		v.Set("slug", f.Slug)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	return v
}
