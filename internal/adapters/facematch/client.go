// Package facematch implements the face-match contract over HTTP.
package facematch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	domain "github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/types"
)

const (
	defaultTimeout = 10 * time.Second
	matchPath      = "/match"
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds a single match request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client posts selfies to a face-match endpoint.
//
// The request is POST {base}/match?event=E&bib=B with the raw image as the
// body. A 200 response carries {"photos":["url", ...]}.
type Client struct {
	base string
	http *http.Client
}

type matchResponse struct {
	Photos []string `json:"photos"`
}

// NewClient creates a client for the endpoint at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse facematch url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("facematch url %q: unsupported scheme", baseURL)
	}
	c := &Client{
		base: u.String(),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Match implements facematch.Matcher.
func (c *Client) Match(ctx context.Context, req domain.Request) ([]types.PhotoRef, error) {
	if len(req.Selfie) == 0 {
		return nil, domain.ErrEmptySelfie
	}

	q := url.Values{}
	q.Set("event", req.EventID)
	if req.Bib != "" {
		q.Set("bib", req.Bib)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+matchPath+"?"+q.Encode(), bytes.NewReader(req.Selfie))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMatchFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: status %d", domain.ErrMatchFailed, resp.StatusCode)
	}

	var body matchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrMatchFailed, err)
	}
	out := make([]types.PhotoRef, 0, len(body.Photos))
	for _, p := range body.Photos {
		if p != "" {
			out = append(out, types.PhotoRef(p))
		}
	}
	return out, nil
}
