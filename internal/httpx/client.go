// Package httpx wraps resty for the read-only Polymarket REST clients.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const userAgent = "sads-console/1.0"

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Client issues GET requests against one base URL.
type Client struct {
	rc *resty.Client
}

// New creates a client on top of httpClient. Retries are off until SetRetryCount.
func New(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetRetryAfter(retryAfter).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500)
		})

	return &Client{rc: rc}
}

// SetBaseURL changes the base URL.
func (c *Client) SetBaseURL(baseURL string) {
	c.rc.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
}

// SetRetryCount sets how many times a failed request is retried.
func (c *Client) SetRetryCount(n int) {
	c.rc.SetRetryCount(n)
}

// Get performs a GET and returns the raw body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, errors.Wrap(err, "executing request")
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 256)}
	}
	return resp.Body(), nil
}

// GetJSON performs a GET and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// retryAfter honours Retry-After on 429; other statuses use the default backoff.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
		return 0, nil
	}
	if v := resp.Header().Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
	}
	return 5 * time.Second, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
