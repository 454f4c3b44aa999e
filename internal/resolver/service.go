// Package resolver coordinates the catalog providers: it resolves ISBNs into
// one reconciled record and ranks title search results across providers.
package resolver

import (
	"errors"
	"time"

	"github.com/lepinkainen/bookmeta/internal/config"
	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/resultcache"
	"github.com/lepinkainen/bookmeta/internal/similarity"
)

const (
	// DefaultDeadline bounds one resolution or search across all providers.
	DefaultDeadline = 20 * time.Second
	// DefaultSearchLimit is used when a search asks for no particular count.
	DefaultSearchLimit = 10
)

// ErrEmptyTitle is returned when a title search has nothing to search for.
var ErrEmptyTitle = errors.New("search title is required")

// Service fans requests out to the providers in precedence order; the first
// provider wins every merge tie-break.
type Service struct {
	providers []book.Provider
	deadline  time.Duration
	weights   similarity.Weights

	cacheCapacity int
	cacheTTL      time.Duration
	clock         func() time.Time
	searchCache   *resultcache.Cache[*rankedResults]
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithDeadline sets the global deadline for one call.
func WithDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// WithWeights sets the ranking constants.
func WithWeights(w similarity.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithSearchCache sizes the title search cache. A zero capacity or ttl disables it.
func WithSearchCache(capacity int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheCapacity = capacity
		s.cacheTTL = ttl
	}
}

// WithClock replaces the time source of the search cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// New creates a Service over the given providers. Order matters: earlier
// providers take precedence when merging.
func New(providers []book.Provider, opts ...Option) *Service {
	s := &Service{
		providers:     providers,
		deadline:      DefaultDeadline,
		weights:       similarity.DefaultWeights,
		cacheCapacity: resultcache.DefaultCapacity,
		cacheTTL:      resultcache.DefaultTTL,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.searchCache = resultcache.New(s.cacheCapacity, s.cacheTTL, (*rankedResults).clone,
		resultcache.WithClock[*rankedResults](s.clock))
	return s
}

// NewFromConfig creates a Service configured from cfg.
func NewFromConfig(cfg *config.Config, providers []book.Provider, opts ...Option) *Service {
	base := []Option{
		WithDeadline(cfg.Resolver.Deadline),
		WithWeights(similarity.Weights{
			ExactAuthor:      cfg.Search.Weights.ExactAuthor,
			PartialAuthor:    cfg.Search.Weights.PartialAuthor,
			LastName:         cfg.Search.Weights.LastName,
			ContainmentFloor: cfg.Search.Weights.ContainmentFloor,
		}),
		WithSearchCache(cfg.Search.CacheCapacity, cfg.Search.CacheTTL),
	}
	return New(providers, append(base, opts...)...)
}

// Providers returns the provider names in precedence order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}
