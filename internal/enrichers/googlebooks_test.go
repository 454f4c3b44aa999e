package enrichers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/bookmeta/internal/cache"
	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	apperrors "github.com/lepinkainen/bookmeta/internal/errors"
	"github.com/lepinkainen/bookmeta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleVolumesJSON = `{
  "totalItems": 2,
  "items": [
    {
      "id": "wrong",
      "volumeInfo": {
        "title": "The Fellowship of the Ring",
        "industryIdentifiers": [{"type": "ISBN_13", "identifier": "9780261103573"}]
      }
    },
    {
      "id": "pD6arNyKyi8C",
      "volumeInfo": {
        "title": "The Hobbit",
        "subtitle": "Or There and Back Again",
        "authors": ["J.R.R. Tolkien", "j.r.r. tolkien"],
        "publisher": "HarperCollins",
        "publishedDate": "1991-06",
        "description": "A great modern classic.",
        "pageCount": 310,
        "categories": ["Fiction / Fantasy / General", "Series: Middle_earth"],
        "language": "en",
        "averageRating": 4.5,
        "ratingsCount": 120,
        "industryIdentifiers": [
          {"type": "ISBN_10", "identifier": "0261103342"},
          {"type": "ISBN_13", "identifier": "9780261103344"},
          {"type": "OTHER", "identifier": "OCLC:123"}
        ],
        "imageLinks": {
          "smallThumbnail": "http://books.google.com/books/content?id=pD6arNyKyi8C&printsec=frontcover&img=1&zoom=5&source=gbs_api",
          "thumbnail": "http://books.google.com/books/content?id=pD6arNyKyi8C&printsec=frontcover&img=1&zoom=1&edge=curl&source=gbs_api"
        }
      }
    }
  ]
}`

func newGoogleTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*GoogleBooksEnricher, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))

	opts = append([]Option{WithBaseURL(server.URL), WithRateLimiter(nil)}, opts...)
	return NewGoogleBooksEnricher(opts...), &calls
}

func TestGoogleBooksFetchByIdentifier(t *testing.T) {
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "isbn:9780261103344", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		_, _ = fmt.Fprint(w, googleVolumesJSON)
	}, WithAPIKey("secret"))

	record, err := client.FetchByIdentifier(context.Background(), "978-0-261-10334-4")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, GoogleBooksName, record.Source)
	assert.Equal(t, "pD6arNyKyi8C", record.NativeID)
	assert.Equal(t, "The Hobbit", record.Title)
	assert.Equal(t, "Or There and Back Again", record.Subtitle)
	assert.Equal(t, []string{"J.R.R. Tolkien"}, record.Authors)
	assert.Equal(t, "HarperCollins", record.Publisher)
	assert.Equal(t, "1991-06-01", record.PublishedDate.Value)
	assert.Equal(t, book.SpecificityMonth, record.PublishedDate.Specificity)
	assert.Equal(t, 310, record.PageCount)
	assert.Equal(t, "en", record.Language)
	assert.Equal(t, []string{"Fiction", "Fantasy"}, record.Categories)
	assert.Equal(t, "Middle earth", record.Series)
	assert.True(t, record.SeriesFromMarker)
	assert.Equal(t, "0261103342", record.ISBN10)
	assert.Equal(t, "9780261103344", record.ISBN13)
	assert.InDelta(t, 4.5, record.AverageRating, 1e-9)
	assert.Equal(t, 120, record.RatingsCount)
	assert.Equal(t, "https://books.google.com/books/content?id=pD6arNyKyi8C&printsec=frontcover&img=1&zoom=0&source=gbs_api", record.CoverURL)
}

func TestGoogleBooksFetchNotFound(t *testing.T) {
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"kind": "books#volumes", "totalItems": 0}`)
	})

	record, err := client.FetchByIdentifier(context.Background(), "9780261103344")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestGoogleBooksFetchInvalidIdentifierMakesNoRequest(t *testing.T) {
	client, calls := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.FetchByIdentifier(context.Background(), "9780261103345")
	require.ErrorIs(t, err, book.ErrInvalidIdentifier)
	assert.Zero(t, calls.Load())
}

func TestGoogleBooksFetchErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "backend down", http.StatusInternalServerError)
		})

		_, err := client.FetchByIdentifier(context.Background(), "9780261103344")
		require.Error(t, err)
		assert.True(t, apperrors.IsHTTPStatusError(err))
		assert.Equal(t, "exception", string(book.OutcomeOf(false, err).Kind))
	})

	t.Run("rate limited", func(t *testing.T) {
		client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.FetchByIdentifier(context.Background(), "9780261103344")
		var rlErr *apperrors.RateLimitError
		require.True(t, errors.As(err, &rlErr))
		assert.Equal(t, 30*time.Second, rlErr.RetryAfter)
		assert.Equal(t, GoogleBooksName, rlErr.Provider)
	})

	t.Run("malformed payload", func(t *testing.T) {
		client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `{"items": [`)
		})

		_, err := client.FetchByIdentifier(context.Background(), "9780261103344")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding")
	})

	t.Run("timeout", func(t *testing.T) {
		client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, WithTimeout(50*time.Millisecond))

		start := time.Now()
		_, err := client.FetchByIdentifier(context.Background(), "9780261103344")
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, book.OutcomeTimeout, book.OutcomeOf(false, err).Kind)
	})
}

func TestGoogleBooksFetchUsesCache(t *testing.T) {
	env := testutil.NewTestEnv(t)
	db, err := cache.Open(env.Path("cache.db"), time.Hour, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client, calls := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "isbn:0261103342" {
			_, _ = fmt.Fprint(w, googleVolumesJSON)
			return
		}
		_, _ = fmt.Fprint(w, `{"totalItems": 0}`)
	}, WithCache(db))

	for range 2 {
		record, err := client.FetchByIdentifier(context.Background(), "0261103342")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.SeriesFromMarker, "marker flag survives the cache round trip")
	}
	for range 2 {
		record, err := client.FetchByIdentifier(context.Background(), "9780306406157")
		require.NoError(t, err)
		assert.Nil(t, record)
	}

	assert.Equal(t, int32(2), calls.Load(), "second lookups are served from cache, including the negative one")
}

func TestGoogleBooksSearchByTitle(t *testing.T) {
	client, _ := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "intitle:fruits basket inauthor:takaya", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("maxResults"))
		_, _ = fmt.Fprint(w, `{
		  "totalItems": 3,
		  "items": [
		    {"id": "v1", "volumeInfo": {"title": "Fruits Basket, Vol. 1", "authors": ["Natsuki Takaya"],
		      "industryIdentifiers": [{"type": "ISBN_13", "identifier": "9781591826033"}]}},
		    {"id": "v2", "volumeInfo": {"title": "Fruits Basket, Vol. 2", "authors": ["Natsuki Takaya"]}},
		    {"id": "v3", "volumeInfo": {"title": "Fruits Basket, Vol. 3"}}
		  ]
		}`)
	})

	records, err := client.SearchByTitle(context.Background(), "fruits basket", "takaya", 1)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Fruits Basket, Vol. 1", records[0].Title)
	assert.Equal(t, "9781591826033", records[0].ISBN13)
	assert.Equal(t, "1591826039", records[0].ISBN10)
	assert.Equal(t, "v2", records[1].NativeID)
	assert.False(t, records[1].HasISBN())
}

func TestGoogleBooksSearchHugeLimit(t *testing.T) {
	client, calls := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "40", r.URL.Query().Get("maxResults"))
		_, _ = fmt.Fprint(w, `{"totalItems": 1, "items": [{"id": "v1", "volumeInfo": {"title": "The Hobbit"}}]}`)
	})

	records, err := client.SearchByTitle(context.Background(), "the hobbit", "", math.MaxInt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchCapClampsLimit(t *testing.T) {
	assert.Equal(t, 2, searchCap(0))
	assert.Equal(t, 20, searchCap(10))
	assert.Equal(t, maxSearchResults*2, searchCap(math.MaxInt))
	assert.Equal(t, maxSearchResults*2, searchCap(math.MaxInt/2+1))
}

func TestGoogleBooksSearchEmptyTitle(t *testing.T) {
	client, calls := newGoogleTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	records, err := client.SearchByTitle(context.Background(), "   ", "", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, calls.Load())
}

func TestClientOptionsApply(t *testing.T) {
	customHTTP := &http.Client{}

	client := NewGoogleBooksEnricher(
		WithBaseURL("https://example.test/"),
		WithHTTPClient(customHTTP),
		WithTimeout(3*time.Second),
		WithUserAgent("tests/1.0"),
		WithAPIKey("k"),
	)

	assert.Equal(t, "https://example.test", client.baseURL)
	assert.Equal(t, customHTTP, client.httpClient)
	assert.Equal(t, 3*time.Second, client.timeout)
	assert.Equal(t, "tests/1.0", client.userAgent)
	assert.Equal(t, "k", client.apiKey)
	assert.NotNil(t, client.rateLimiter)

	defaults := NewOpenLibraryEnricher(WithTimeout(0), WithUserAgent(""))
	assert.Equal(t, DefaultTimeout, defaults.timeout)
	assert.Equal(t, defaultUserAgent, defaults.userAgent)
	assert.Equal(t, openLibraryBaseURL, defaults.baseURL)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 120*time.Second, parseRetryAfter("120"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.InDelta(t, time.Hour.Seconds(), parseRetryAfter(future).Seconds(), 5)
}
