// Package scrape provides the shared HTTP fetch client used by vendor
// agents, plus small goquery helpers for table-shaped lifecycle pages.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
)

// DefaultTimeout is the per-request HTTP timeout for vendor sources.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is a browser-class UA string; several vendor lifecycle
// pages serve reduced markup (or block outright) for obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBodyBytes caps response reads; lifecycle pages are small and an
// unbounded read on a misbehaving upstream would pin memory.
const maxBodyBytes = 4 << 20

// ErrUpstreamStatus marks a non-2xx upstream response. Agents treat it as
// a soft failure and continue down their fallback chain.
var ErrUpstreamStatus = errors.New("upstream returned non-2xx status")

// Client fetches vendor pages. One circuit breaker per upstream host keeps
// a flapping vendor from burning request budget while others stay usable.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the transport (tests use httptest servers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent overrides the UA header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates the shared fetch client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		userAgent: DefaultUserAgent,
		logger:    logger,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
	c.httpClient = &http.Client{
		Timeout: DefaultTimeout,
		// Follow redirects, but log any hop that crosses domains; a vendor
		// silently redirecting lifecycle pages off-site is worth noticing.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			if len(via) > 0 && req.URL.Host != via[0].URL.Host {
				logger.Warn("cross-domain redirect while scraping",
					"from", via[0].URL.String(), "to", req.URL.String())
			}
			return nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the body. Non-2xx responses return
// ErrUpstreamStatus (wrapped with the status code); transport errors and
// open breakers surface as-is.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	breaker := c.breakerFor(rawURL)

	body, err := breaker.Execute(func() (any, error) {
		return c.fetch(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// GetDocument fetches url and parses it as HTML.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse HTML from %s: %w", rawURL, err)
	}
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("upstream returned non-2xx", "url", rawURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %d from %s", ErrUpstreamStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", rawURL, err)
	}
	return body, nil
}

func (c *Client) breakerFor(rawURL string) *gobreaker.CircuitBreaker {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	breaker, ok := c.breakers[host]
	if !ok {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    host,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("scrape circuit breaker state change",
					"host", name, "from", from.String(), "to", to.String())
			},
		})
		c.breakers[host] = breaker
	}
	return breaker
}
