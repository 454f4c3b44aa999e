// Package config holds the runtime configuration for bookmeta. Values come
// from viper (config.yaml, environment, CLI overrides) and are snapshotted
// into a Config by Load.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyProviderTimeout        = "providers.timeout"
	KeyGoogleBooksBaseURL     = "providers.googlebooks.baseurl"
	KeyGoogleBooksAPIKey      = "providers.googlebooks.apikey"
	KeyGoogleBooksRate        = "providers.googlebooks.ratepersecond"
	KeyOpenLibraryBaseURL     = "providers.openlibrary.baseurl"
	KeyOpenLibraryRate        = "providers.openlibrary.ratepersecond"
	KeyOpenLibraryUserAgent   = "providers.openlibrary.useragent"
	KeyResolverDeadline       = "resolver.deadline"
	KeySearchCacheCapacity    = "search.cachecapacity"
	KeySearchCacheTTL         = "search.cachettl"
	KeyWeightExactAuthor      = "search.weights.exactauthor"
	KeyWeightPartialAuthor    = "search.weights.partialauthor"
	KeyWeightLastName         = "search.weights.lastname"
	KeyWeightContainmentFloor = "search.weights.containmentfloor"
	KeyCacheDBFile            = "cache.dbfile"
	KeyCacheTTL               = "cache.ttl"
	KeyCacheNegativeTTL       = "cache.negativettl"
	KeyLogLevel               = "log.level"
)

// Defaults.
const (
	DefaultProviderTimeout    = 8 * time.Second
	DefaultResolverDeadline   = 20 * time.Second
	DefaultSearchCacheSize    = 128
	DefaultSearchCacheTTL     = 300 * time.Second
	DefaultCacheTTL           = 720 * time.Hour
	DefaultCacheNegativeTTL   = 168 * time.Hour
	DefaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1"
	DefaultOpenLibraryBaseURL = "https://openlibrary.org"
	DefaultUserAgent          = "bookmeta/1.0 (+https://github.com/lepinkainen/bookmeta)"
)

// Config is the resolved configuration.
type Config struct {
	Providers ProvidersConfig
	Resolver  ResolverConfig
	Search    SearchConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ProvidersConfig configures the catalog clients.
type ProvidersConfig struct {
	// Timeout bounds each individual provider request.
	Timeout     time.Duration
	GoogleBooks GoogleBooksConfig
	OpenLibrary OpenLibraryConfig
}

// GoogleBooksConfig configures the Google Books client.
type GoogleBooksConfig struct {
	BaseURL       string
	APIKey        string
	RatePerSecond int
}

// OpenLibraryConfig configures the Open Library client.
type OpenLibraryConfig struct {
	BaseURL       string
	RatePerSecond int
	UserAgent     string
}

// ResolverConfig configures the fetch coordinator.
type ResolverConfig struct {
	// Deadline bounds one whole resolution or search, across all providers.
	Deadline time.Duration
}

// SearchConfig configures title search ranking and result caching.
type SearchConfig struct {
	CacheCapacity int
	CacheTTL      time.Duration
	Weights       WeightsConfig
}

// WeightsConfig holds the tunable ranking constants.
type WeightsConfig struct {
	ExactAuthor      float64
	PartialAuthor    float64
	LastName         float64
	ContainmentFloor float64
}

// CacheConfig configures the optional sqlite provider-response cache.
// An empty DBFile disables it.
type CacheConfig struct {
	DBFile      string
	TTL         time.Duration
	NegativeTTL time.Duration
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
}

// SetDefaults registers default values and environment bindings on viper.
func SetDefaults() {
	viper.SetDefault(KeyProviderTimeout, DefaultProviderTimeout)
	viper.SetDefault(KeyGoogleBooksBaseURL, DefaultGoogleBooksBaseURL)
	viper.SetDefault(KeyGoogleBooksRate, 5)
	viper.SetDefault(KeyOpenLibraryBaseURL, DefaultOpenLibraryBaseURL)
	viper.SetDefault(KeyOpenLibraryRate, 3)
	viper.SetDefault(KeyOpenLibraryUserAgent, DefaultUserAgent)
	viper.SetDefault(KeyResolverDeadline, DefaultResolverDeadline)
	viper.SetDefault(KeySearchCacheCapacity, DefaultSearchCacheSize)
	viper.SetDefault(KeySearchCacheTTL, DefaultSearchCacheTTL)
	viper.SetDefault(KeyWeightExactAuthor, 0.20)
	viper.SetDefault(KeyWeightPartialAuthor, 0.12)
	viper.SetDefault(KeyWeightLastName, 0.08)
	viper.SetDefault(KeyWeightContainmentFloor, 0.85)
	viper.SetDefault(KeyCacheDBFile, "")
	viper.SetDefault(KeyCacheTTL, DefaultCacheTTL)
	viper.SetDefault(KeyCacheNegativeTTL, DefaultCacheNegativeTTL)
	viper.SetDefault(KeyLogLevel, "info")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// Bind specific environment variables to config keys
	if err := viper.BindEnv(KeyGoogleBooksAPIKey, "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
}

// Load snapshots the current viper state into a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Providers: ProvidersConfig{
			Timeout: viper.GetDuration(KeyProviderTimeout),
			GoogleBooks: GoogleBooksConfig{
				BaseURL:       viper.GetString(KeyGoogleBooksBaseURL),
				APIKey:        viper.GetString(KeyGoogleBooksAPIKey),
				RatePerSecond: viper.GetInt(KeyGoogleBooksRate),
			},
			OpenLibrary: OpenLibraryConfig{
				BaseURL:       viper.GetString(KeyOpenLibraryBaseURL),
				RatePerSecond: viper.GetInt(KeyOpenLibraryRate),
				UserAgent:     viper.GetString(KeyOpenLibraryUserAgent),
			},
		},
		Resolver: ResolverConfig{
			Deadline: viper.GetDuration(KeyResolverDeadline),
		},
		Search: SearchConfig{
			CacheCapacity: viper.GetInt(KeySearchCacheCapacity),
			CacheTTL:      viper.GetDuration(KeySearchCacheTTL),
			Weights: WeightsConfig{
				ExactAuthor:      viper.GetFloat64(KeyWeightExactAuthor),
				PartialAuthor:    viper.GetFloat64(KeyWeightPartialAuthor),
				LastName:         viper.GetFloat64(KeyWeightLastName),
				ContainmentFloor: viper.GetFloat64(KeyWeightContainmentFloor),
			},
		},
		Cache: CacheConfig{
			DBFile:      viper.GetString(KeyCacheDBFile),
			TTL:         viper.GetDuration(KeyCacheTTL),
			NegativeTTL: viper.GetDuration(KeyCacheNegativeTTL),
		},
		Log: LogConfig{
			Level: viper.GetString(KeyLogLevel),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants between configuration values.
func (c *Config) Validate() error {
	var errs []error

	if c.Providers.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyProviderTimeout, c.Providers.Timeout))
	}
	if c.Resolver.Deadline <= c.Providers.Timeout {
		errs = append(errs, fmt.Errorf("%s (%s) must be greater than %s (%s)",
			KeyResolverDeadline, c.Resolver.Deadline, KeyProviderTimeout, c.Providers.Timeout))
	}
	if c.Search.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeySearchCacheCapacity))
	}
	if c.Search.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeySearchCacheTTL))
	}
	if f := c.Search.Weights.ContainmentFloor; f < 0 || f > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", KeyWeightContainmentFloor, f))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
