package enrichers

import (
	"github.com/lepinkainen/bookmeta/internal/cache"
	"github.com/lepinkainen/bookmeta/internal/config"
	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/ratelimit"
)

// FromConfig builds the providers in precedence order: Google Books first,
// then Open Library. db may be nil. extra options apply to both clients.
func FromConfig(cfg config.ProvidersConfig, db *cache.CacheDB, extra ...Option) []book.Provider {
	google := []Option{
		WithBaseURL(cfg.GoogleBooks.BaseURL),
		WithAPIKey(cfg.GoogleBooks.APIKey),
		WithTimeout(cfg.Timeout),
		WithRateLimiter(ratelimit.New(GoogleBooksName, cfg.GoogleBooks.RatePerSecond)),
		WithCache(db),
	}
	openLibrary := []Option{
		WithBaseURL(cfg.OpenLibrary.BaseURL),
		WithUserAgent(cfg.OpenLibrary.UserAgent),
		WithTimeout(cfg.Timeout),
		WithRateLimiter(ratelimit.New(OpenLibraryName, cfg.OpenLibrary.RatePerSecond)),
		WithCache(db),
	}

	return []book.Provider{
		NewGoogleBooksEnricher(append(google, extra...)...),
		NewOpenLibraryEnricher(append(openLibrary, extra...)...),
	}
}
