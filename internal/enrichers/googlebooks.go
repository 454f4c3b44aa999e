package enrichers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/cache"
	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/isbn"
)

const (
	// GoogleBooksName is the provider name used in outcomes and warnings.
	GoogleBooksName = "Google Books"

	googleBooksBaseURL       = "https://www.googleapis.com/books/v1"
	googleBooksRatePerSecond = 5
	googleBooksCacheTable    = "googlebooks_cache"
)

// GoogleBooksEnricher looks books up in the Google Books volumes API.
type GoogleBooksEnricher struct {
	client
}

// Compile-time check that GoogleBooksEnricher implements book.Provider.
var _ book.Provider = (*GoogleBooksEnricher)(nil)

// NewGoogleBooksEnricher creates a new Google Books client.
func NewGoogleBooksEnricher(opts ...Option) *GoogleBooksEnricher {
	return &GoogleBooksEnricher{client: newClient(GoogleBooksName, googleBooksBaseURL, googleBooksRatePerSecond, opts)}
}

// Name returns the human-readable name of this provider.
func (e *GoogleBooksEnricher) Name() string {
	return GoogleBooksName
}

// cachedGoogleBooksResult wraps a record with metadata for caching.
type cachedGoogleBooksResult struct {
	Record   *book.Record `json:"record"`
	NotFound bool         `json:"not_found"`
}

// googleBooksResponse matches the Google Books API response structure.
type googleBooksResponse struct {
	TotalItems int                 `json:"totalItems"`
	Items      []googleBooksVolume `json:"items"`
}

type googleBooksVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Description         string   `json:"description"`
		PageCount           int      `json:"pageCount"`
		Categories          []string `json:"categories"`
		Language            string   `json:"language"`
		AverageRating       float64  `json:"averageRating"`
		RatingsCount        int      `json:"ratingsCount"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks map[string]string `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// FetchByIdentifier fetches the volume for a normalized ISBN.
// Returns nil, nil when Google Books has no matching volume.
func (e *GoogleBooksEnricher) FetchByIdentifier(ctx context.Context, id string) (*book.Record, error) {
	normalized := isbn.Normalize(id)
	if !isbn.IsValid(normalized) {
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidIdentifier, id)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cached, _, err := cache.GetOrFetchWithTTL(e.cache, googleBooksCacheTable, normalized, func() (*cachedGoogleBooksResult, error) {
		return e.fetchFromAPI(ctx, normalized)
	}, cache.SelectNegativeCacheTTL(e.cache, func(r *cachedGoogleBooksResult) bool {
		return r.NotFound
	}))
	if err != nil {
		logFetchFailure(GoogleBooksName, normalized, err)
		return nil, err
	}

	if cached == nil || cached.NotFound || cached.Record == nil {
		return nil, nil
	}
	return cached.Record, nil
}

func (e *GoogleBooksEnricher) fetchFromAPI(ctx context.Context, id string) (*cachedGoogleBooksResult, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+id)
	endpoint := e.endpoint(params)

	slog.Debug("Fetching book data from Google Books", "isbn", id)

	var result googleBooksResponse
	if err := e.getJSON(ctx, endpoint, &result); err != nil {
		if errors.Is(err, errNotFound) {
			return &cachedGoogleBooksResult{NotFound: true}, nil
		}
		return nil, err
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		return &cachedGoogleBooksResult{NotFound: true}, nil
	}

	record := e.toRecord(pickVolume(result.Items, id))
	return &cachedGoogleBooksResult{Record: &record}, nil
}

// pickVolume prefers the first volume whose identifiers match the requested
// ISBN and falls back to the first volume.
func pickVolume(items []googleBooksVolume, id string) googleBooksVolume {
	want := isbn.EquivalenceSet(id)
	for _, item := range items {
		for _, ident := range item.VolumeInfo.IndustryIdentifiers {
			if _, ok := want[isbn.Normalize(ident.Identifier)]; ok {
				return item
			}
		}
	}
	return items[0]
}

// SearchByTitle runs an intitle/inauthor query and returns up to limit*2 records.
func (e *GoogleBooksEnricher) SearchByTitle(ctx context.Context, title, author string, limit int) ([]book.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	query := "intitle:" + title
	if author = strings.TrimSpace(author); author != "" {
		query += " inauthor:" + author
	}

	capped := searchCap(limit)
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(min(capped, maxSearchResults)))
	params.Set("printType", "books")

	var result googleBooksResponse
	if err := e.getJSON(ctx, e.endpoint(params), &result); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		slog.Debug("Google Books search failed", "title", title, "author", author, "error", err)
		return nil, err
	}

	records := make([]book.Record, 0, min(len(result.Items), capped))
	for _, item := range result.Items {
		if len(records) == capped {
			break
		}
		records = append(records, e.toRecord(item))
	}
	return records, nil
}

func (e *GoogleBooksEnricher) endpoint(params url.Values) string {
	if e.apiKey != "" {
		params.Set("key", e.apiKey)
	}
	return fmt.Sprintf("%s/volumes?%s", e.baseURL, params.Encode())
}

func (e *GoogleBooksEnricher) toRecord(v googleBooksVolume) book.Record {
	info := v.VolumeInfo

	categories, series, fromMarker := splitCategories(info.Categories)

	r := book.Record{
		Source:           GoogleBooksName,
		NativeID:         v.ID,
		Title:            strings.TrimSpace(info.Title),
		Subtitle:         strings.TrimSpace(info.Subtitle),
		Authors:          book.DedupeFold(info.Authors),
		Publisher:        strings.Trim(strings.TrimSpace(info.Publisher), `"`),
		PublishedDate:    book.ParsePublishedDate(info.PublishedDate),
		PageCount:        max(info.PageCount, 0),
		Language:         canonicalLanguage(info.Language),
		Description:      strings.TrimSpace(info.Description),
		Categories:       categories,
		CoverURL:         bestGoogleImage(info.ImageLinks),
		Series:           series,
		SeriesFromMarker: fromMarker,
		AverageRating:    info.AverageRating,
		RatingsCount:     info.RatingsCount,
	}

	ids := make([]string, 0, len(info.IndustryIdentifiers))
	for _, ident := range info.IndustryIdentifiers {
		if ident.Type == "ISBN_13" || ident.Type == "ISBN_10" {
			ids = append(ids, ident.Identifier)
		}
	}
	r.SetIdentifiers(ids...)

	return r
}
