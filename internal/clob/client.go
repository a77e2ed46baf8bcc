package clob

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/johan/sads-console/internal/httpx"
)

const (
	// DefaultBaseURL is the base URL for the CLOB API.
	DefaultBaseURL = "https://clob.polymarket.com"
)

// Client is an HTTP client for the CLOB API.
type Client struct {
	http *httpx.Client
}

// NewClient creates a new CLOB API client.
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

// FetchBook fetches the order book for a given token ID.
func (c *Client) FetchBook(ctx context.Context, tokenID string) (*BookSnapshot, error) {
	var book BookSnapshot
	err := c.http.GetJSON(ctx, "/book", tokenQuery(tokenID), &book)
	if httpx.StatusCode(err) == http.StatusNotFound {
		return nil, errors.Wrapf(err, "token not found: %s", tokenID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching book")
	}
	return &book, nil
}

// FetchMidpoint fetches the midpoint price for a given token ID.
func (c *Client) FetchMidpoint(ctx context.Context, tokenID string) (string, error) {
	var mid MidpointResponse
	if err := c.http.GetJSON(ctx, "/midpoint", tokenQuery(tokenID), &mid); err != nil {
		return "", errors.Wrap(err, "fetching midpoint")
	}
	return mid.Mid, nil
}

// FetchSpread fetches the spread for a given token ID.
func (c *Client) FetchSpread(ctx context.Context, tokenID string) (string, error) {
	var spread SpreadResponse
	if err := c.http.GetJSON(ctx, "/spread", tokenQuery(tokenID), &spread); err != nil {
		return "", errors.Wrap(err, "fetching spread")
	}
	return spread.Spread, nil
}

// Raw returns the undecoded body of a GET, for pass-through proxying.
func (c *Client) Raw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, err := c.http.Get(ctx, path, query)
	if err != nil {
		return nil, errors.Wrapf(err, "proxying %s", path)
	}
	return body, nil
}

func tokenQuery(tokenID string) url.Values {
	return url.Values{"token_id": {tokenID}}
}
