package oscquery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
)

const (
	DefaultTimeout = 2 * time.Second

	// maxTreeSize caps how much of a response body is read.
	maxTreeSize = 8 << 20
)

// Client fetches tree snapshots from one OSCQuery server.
type Client struct {
	url     string
	timeout time.Duration
	http    HTTPDoer
	observe func(time.Duration, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.http = doer
	}
}

// WithTimeout sets the bound of a single fetch.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFetchObserver registers a callback receiving the duration and outcome
// of every fetch.
func WithFetchObserver(fn func(time.Duration, error)) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient returns a client for address, given either as host:port or as
// a full http URL.
func NewClient(address string, opts ...ClientOption) *Client {
	c := &Client{
		url:     BaseURL(address),
		timeout: DefaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL turns host:port into the URL the tree is served from.
func BaseURL(address string) string {
	if strings.Contains(address, "://") {
		return address
	}

	return "http://" + address
}

// URL returns the URL the client queries.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one bounded GET and parses the response.
func (c *Client) Fetch(ctx context.Context) (*Node, error) {
	start := time.Now()
	root, err := c.fetch(ctx)
	if c.observe != nil {
		c.observe(time.Since(start), err)
	}

	return root, err
}

func (c *Client) fetch(ctx context.Context) (*Node, error) {
	errFactory := errors.New()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errFactory.WithData(ErrUnreachable, fmt.Sprintf("status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTreeSize))
	if err != nil {
		return nil, errFactory.Wrap(ErrUnreachable, err)
	}

	return Parse(body)
}
