package enrichers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookmeta/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.ProvidersConfig{
		Timeout: 3 * time.Second,
		GoogleBooks: config.GoogleBooksConfig{
			BaseURL:       "http://google.test/books/v1/",
			APIKey:        "secret",
			RatePerSecond: 5,
		},
		OpenLibrary: config.OpenLibraryConfig{
			BaseURL:       "http://openlibrary.test",
			RatePerSecond: 0,
			UserAgent:     "bookmeta-test/1.0",
		},
	}

	providers := FromConfig(cfg, nil)
	require.Len(t, providers, 2)
	assert.Equal(t, GoogleBooksName, providers[0].Name())
	assert.Equal(t, OpenLibraryName, providers[1].Name())

	google, ok := providers[0].(*GoogleBooksEnricher)
	require.True(t, ok)
	assert.Equal(t, "http://google.test/books/v1", google.baseURL)
	assert.Equal(t, "secret", google.apiKey)
	assert.Equal(t, 3*time.Second, google.timeout)
	assert.NotNil(t, google.rateLimiter)
	assert.Nil(t, google.cache)

	ol, ok := providers[1].(*OpenLibraryEnricher)
	require.True(t, ok)
	assert.Equal(t, "http://openlibrary.test", ol.baseURL)
	assert.Equal(t, "bookmeta-test/1.0", ol.userAgent)
	assert.Empty(t, ol.apiKey)
	assert.Nil(t, ol.rateLimiter, "zero rate disables limiting")
}

func TestFromConfigDefaultsAndExtraOptions(t *testing.T) {
	providers := FromConfig(config.ProvidersConfig{}, nil, WithTimeout(time.Second))

	google := providers[0].(*GoogleBooksEnricher)
	assert.Equal(t, googleBooksBaseURL, google.baseURL)
	assert.Equal(t, time.Second, google.timeout)

	ol := providers[1].(*OpenLibraryEnricher)
	assert.Equal(t, defaultUserAgent, ol.userAgent)
	assert.Equal(t, time.Second, ol.timeout)
}
