// Package enrichers contains the catalog provider clients. Each client maps
// its provider's native JSON into book.Record and enforces its own
// per-request timeout, rate limit and optional response cache.
package enrichers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/bookmeta/internal/cache"
	apperrors "github.com/lepinkainen/bookmeta/internal/errors"
	"github.com/lepinkainen/bookmeta/internal/ratelimit"
)

const (
	// DefaultTimeout bounds a single provider call, rate limit wait included.
	DefaultTimeout = 8 * time.Second

	defaultUserAgent = "bookmeta/1.0"
	maxSearchResults = 40
)

// errNotFound marks a 404 answer, which providers treat as "no such book".
var errNotFound = errors.New("not found")

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// client holds the transport shared by every provider.
type client struct {
	name        string
	baseURL     string
	apiKey      string
	userAgent   string
	timeout     time.Duration
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
	cache       *cache.CacheDB
}

func newClient(name, baseURL string, ratePerSecond int, opts []Option) client {
	c := client{
		name:        name,
		baseURL:     baseURL,
		userAgent:   defaultUserAgent,
		timeout:     DefaultTimeout,
		httpClient:  &http.Client{},
		rateLimiter: ratelimit.New(name, ratePerSecond),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option is a functional option for configuring a provider client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(cl *client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the provider API.
func WithBaseURL(base string) Option {
	return func(cl *client) {
		if base != "" {
			cl.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithAPIKey sets the API key sent with every request, where the provider uses one.
func WithAPIKey(key string) Option {
	return func(cl *client) {
		cl.apiKey = key
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithRateLimiter replaces the default rate limiter. Passing nil disables limiting.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(cl *client) {
		cl.rateLimiter = limiter
	}
}

// WithCache enables the persistent lookup cache.
func WithCache(db *cache.CacheDB) Option {
	return func(cl *client) {
		cl.cache = db
	}
}

// withTimeout derives the context for one provider call.
func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// getJSON performs a single GET and decodes the JSON body into target.
// 404 yields errNotFound, 429 a RateLimitError and any other non-2xx status
// an HTTPStatusError.
func (c *client) getJSON(ctx context.Context, endpoint string, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		rlErr := apperrors.NewRateLimitErrorWithRetry("rate limited", parseRetryAfter(resp.Header.Get("Retry-After")))
		rlErr.Provider = c.name
		return rlErr
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewHTTPStatusError(c.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding %s response: %w", c.name, err)
	}
	return nil
}

// parseRetryAfter understands both the delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// searchCap is how many candidates a search may return for a ranker limit.
// The limit is clamped first so doubling cannot overflow.
func searchCap(limit int) int {
	return min(max(limit, 1), maxSearchResults) * 2
}

func logFetchFailure(provider, id string, err error) {
	slog.Debug("Provider lookup failed", "provider", provider, "isbn", id, "error", err)
}
