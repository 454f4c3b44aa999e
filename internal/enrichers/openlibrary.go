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
	// OpenLibraryName is the provider name used in outcomes and warnings.
	OpenLibraryName = "Open Library"

	openLibraryBaseURL       = "https://openlibrary.org"
	openLibraryRatePerSecond = 3
	openLibraryCacheTable    = "openlibrary_cache"
	openLibrarySearchFields  = "key,title,subtitle,author_name,publisher,first_publish_year,publish_date,isbn,cover_i,number_of_pages_median,language,subject,ratings_average,ratings_count"
)

// OpenLibraryEnricher looks books up in Open Library.
type OpenLibraryEnricher struct {
	client
}

// Compile-time check that OpenLibraryEnricher implements book.Provider.
var _ book.Provider = (*OpenLibraryEnricher)(nil)

// NewOpenLibraryEnricher creates a new Open Library client.
func NewOpenLibraryEnricher(opts ...Option) *OpenLibraryEnricher {
	return &OpenLibraryEnricher{client: newClient(OpenLibraryName, openLibraryBaseURL, openLibraryRatePerSecond, opts)}
}

// Name returns the human-readable name of this provider.
func (e *OpenLibraryEnricher) Name() string {
	return OpenLibraryName
}

// cachedOpenLibraryResult wraps a record with metadata for caching.
type cachedOpenLibraryResult struct {
	Record   *book.Record `json:"record"`
	NotFound bool         `json:"not_found"`
}

// openLibraryBookResponse matches one entry of /api/books?jscmd=details.
type openLibraryBookResponse struct {
	ThumbnailURL string             `json:"thumbnail_url"`
	Details      openLibraryEdition `json:"details"`
}

// openLibraryEdition matches the edition record embedded in the details response.
type openLibraryEdition struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description any    `json:"description"`
	Authors     []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"authors"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
	Languages     []struct {
		Key string `json:"key"`
	} `json:"languages"`
	Subjects []any    `json:"subjects"`
	Series   []string `json:"series"`
	Covers   []int    `json:"covers"`
	ISBN10   []string `json:"isbn_10"`
	ISBN13   []string `json:"isbn_13"`
}

// openLibrarySearchResponse matches search.json.
type openLibrarySearchResponse struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	Subtitle            string   `json:"subtitle"`
	AuthorNames         []string `json:"author_name"`
	Publishers          []string `json:"publisher"`
	FirstPublishYear    int      `json:"first_publish_year"`
	PublishDates        []string `json:"publish_date"`
	ISBN                []string `json:"isbn"`
	CoverID             int      `json:"cover_i"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	Languages           []string `json:"language"`
	Subjects            []string `json:"subject"`
	RatingsAverage      float64  `json:"ratings_average"`
	RatingsCount        int      `json:"ratings_count"`
}

// FetchByIdentifier fetches the edition for a normalized ISBN.
// Returns nil, nil when Open Library has no such edition.
func (e *OpenLibraryEnricher) FetchByIdentifier(ctx context.Context, id string) (*book.Record, error) {
	normalized := isbn.Normalize(id)
	if !isbn.IsValid(normalized) {
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidIdentifier, id)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cached, _, err := cache.GetOrFetchWithTTL(e.cache, openLibraryCacheTable, normalized, func() (*cachedOpenLibraryResult, error) {
		return e.fetchFromAPI(ctx, normalized)
	}, cache.SelectNegativeCacheTTL(e.cache, func(r *cachedOpenLibraryResult) bool {
		return r.NotFound
	}))
	if err != nil {
		logFetchFailure(OpenLibraryName, normalized, err)
		return nil, err
	}

	if cached == nil || cached.NotFound || cached.Record == nil {
		return nil, nil
	}
	return cached.Record, nil
}

func (e *OpenLibraryEnricher) fetchFromAPI(ctx context.Context, id string) (*cachedOpenLibraryResult, error) {
	params := url.Values{}
	params.Set("bibkeys", "ISBN:"+id)
	params.Set("format", "json")
	params.Set("jscmd", "details")
	endpoint := fmt.Sprintf("%s/api/books?%s", e.baseURL, params.Encode())

	slog.Debug("Fetching book data from Open Library", "isbn", id)

	var result map[string]openLibraryBookResponse
	if err := e.getJSON(ctx, endpoint, &result); err != nil {
		if errors.Is(err, errNotFound) {
			return &cachedOpenLibraryResult{NotFound: true}, nil
		}
		return nil, err
	}

	entry, ok := result["ISBN:"+id]
	if !ok {
		// The bibkey echoes the request, but be lenient about its exact form
		for _, v := range result {
			entry, ok = v, true
			break
		}
	}
	if !ok || entry.Details.Title == "" {
		return &cachedOpenLibraryResult{NotFound: true}, nil
	}

	record := editionToRecord(entry.Details, entry.ThumbnailURL)
	return &cachedOpenLibraryResult{Record: &record}, nil
}

// SearchByTitle queries search.json and returns up to limit*2 records.
func (e *OpenLibraryEnricher) SearchByTitle(ctx context.Context, title, author string, limit int) ([]book.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	capped := searchCap(limit)
	params := url.Values{}
	params.Set("title", title)
	if author = strings.TrimSpace(author); author != "" {
		params.Set("author", author)
	}
	params.Set("limit", strconv.Itoa(min(capped, maxSearchResults)))
	params.Set("fields", openLibrarySearchFields)
	endpoint := fmt.Sprintf("%s/search.json?%s", e.baseURL, params.Encode())

	var result openLibrarySearchResponse
	if err := e.getJSON(ctx, endpoint, &result); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		slog.Debug("Open Library search failed", "title", title, "author", author, "error", err)
		return nil, err
	}

	records := make([]book.Record, 0, min(len(result.Docs), capped))
	for _, doc := range result.Docs {
		if len(records) == capped {
			break
		}
		records = append(records, searchDocToRecord(doc))
	}
	return records, nil
}

func editionToRecord(ed openLibraryEdition, thumbnail string) book.Record {
	authors := make([]string, 0, len(ed.Authors))
	for _, a := range ed.Authors {
		authors = append(authors, a.Name)
	}

	categories, series, fromMarker := splitCategories(subjectNames(ed.Subjects))
	if series == "" && len(ed.Series) > 0 {
		series = strings.TrimSpace(ed.Series[0])
	}

	var language string
	if len(ed.Languages) > 0 {
		language = canonicalLanguage(ed.Languages[0].Key)
	}

	var publisher string
	if len(ed.Publishers) > 0 {
		publisher = strings.TrimSpace(ed.Publishers[0])
	}

	r := book.Record{
		Source:           OpenLibraryName,
		NativeID:         strings.TrimPrefix(ed.Key, "/books/"),
		Title:            strings.TrimSpace(ed.Title),
		Subtitle:         strings.TrimSpace(ed.Subtitle),
		Authors:          book.DedupeFold(authors),
		Publisher:        publisher,
		PublishedDate:    book.ParsePublishedDate(ed.PublishDate),
		PageCount:        max(ed.NumberOfPages, 0),
		Language:         language,
		Description:      descriptionText(ed.Description),
		Categories:       categories,
		CoverURL:         bestOpenLibraryCover(ed.Covers, thumbnail),
		Series:           series,
		SeriesFromMarker: fromMarker,
	}
	r.SetIdentifiers(append(append([]string{}, ed.ISBN13...), ed.ISBN10...)...)

	return r
}

func searchDocToRecord(doc openLibrarySearchDoc) book.Record {
	categories, series, fromMarker := splitCategories(doc.Subjects)

	var language string
	if len(doc.Languages) > 0 {
		language = canonicalLanguage(doc.Languages[0])
	}

	var publisher string
	if len(doc.Publishers) > 0 {
		publisher = strings.TrimSpace(doc.Publishers[0])
	}

	published := book.PublishedDate{}
	if doc.FirstPublishYear > 0 {
		published = book.ParsePublishedDate(strconv.Itoa(doc.FirstPublishYear))
	} else if len(doc.PublishDates) > 0 {
		published = book.ParsePublishedDate(doc.PublishDates[0])
	}

	r := book.Record{
		Source:           OpenLibraryName,
		NativeID:         strings.TrimPrefix(doc.Key, "/works/"),
		Title:            strings.TrimSpace(doc.Title),
		Subtitle:         strings.TrimSpace(doc.Subtitle),
		Authors:          book.DedupeFold(doc.AuthorNames),
		Publisher:        publisher,
		PublishedDate:    published,
		PageCount:        max(doc.NumberOfPagesMedian, 0),
		Language:         language,
		Categories:       categories,
		CoverURL:         openLibraryCoverByID(doc.CoverID),
		Series:           series,
		SeriesFromMarker: fromMarker,
		AverageRating:    doc.RatingsAverage,
		RatingsCount:     doc.RatingsCount,
	}
	r.SetIdentifiers(pickSearchISBNs(doc.ISBN)...)

	return r
}

// pickSearchISBNs chooses one edition's identifiers from the mixed list a
// search document carries: the first valid ISBN-13, otherwise the first
// valid ISBN-10.
func pickSearchISBNs(raw []string) []string {
	var first10 string
	for _, id := range raw {
		s := isbn.Normalize(id)
		if isbn.IsValidISBN13(s) {
			return []string{s}
		}
		if first10 == "" && isbn.IsValidISBN10(s) {
			first10 = s
		}
	}
	if first10 != "" {
		return []string{first10}
	}
	return nil
}
