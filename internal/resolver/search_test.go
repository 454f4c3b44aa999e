package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
)

func titled(source, title string, ids ...string) book.Record {
	r := book.Record{Source: source, Title: title, Authors: []string{"J.R.R. Tolkien"}}
	r.SetIdentifiers(ids...)
	return r
}

func TestSearchByTitleRanksAndMerges(t *testing.T) {
	google := &fakeProvider{name: "Google Books", search: listing(
		titled("Google Books", "The Hobbit Companion", "9780000000002"),
		titled("Google Books", "The Hobbit", "0261103342"),
	)}
	ol := &fakeProvider{name: "Open Library", search: listing(
		titled("Open Library", "Hobbit", "9780261103344"),
		titled("Open Library", "Farmer Giles of Ham"),
	)}
	svc := New([]book.Provider{google, ol})

	got, err := svc.SearchByTitle(context.Background(), "The Hobbit", "Tolkien", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "The Hobbit", got[0].Record.Title)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, []string{"Google Books", "Open Library"}, got[0].Record.Sources)
	assert.Equal(t, "9780261103344", got[0].Key())

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, "Farmer Giles of Ham", got[2].Record.Title)
}

func TestSearchByTitleKeepsDistinctVolumes(t *testing.T) {
	svc := New([]book.Provider{
		&fakeProvider{name: "Google Books", search: listing(
			titled("Google Books", "Fruits Basket, Vol. 1", "9781591826033"),
		)},
		&fakeProvider{name: "Open Library", search: listing(
			titled("Open Library", "Fruits Basket, Vol. 2", "9781591826040"),
		)},
	})

	got, err := svc.SearchByTitle(context.Background(), "Fruits Basket", "", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].Key(), got[1].Key())
	assert.Len(t, got[0].Record.Sources, 1)
	assert.Len(t, got[1].Record.Sources, 1)
}

func TestSearchByTitleKeepsMaxScoreOnMerge(t *testing.T) {
	svc := New([]book.Provider{
		&fakeProvider{name: "Google Books", search: listing(
			titled("Google Books", "Hobbit Illustrated Deluxe Edition", "0261103342"),
		)},
		&fakeProvider{name: "Open Library", search: listing(
			titled("Open Library", "The Hobbit", "9780261103344"),
		)},
	})

	got, err := svc.SearchByTitle(context.Background(), "The Hobbit", "", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "Hobbit Illustrated Deluxe Edition", got[0].Record.Title)
}

func TestSearchByTitleTruncatesToLimit(t *testing.T) {
	var records []book.Record
	for i := range 8 {
		records = append(records, titled("Google Books", fmt.Sprintf("Dune %d", i)))
	}
	svc := New([]book.Provider{&fakeProvider{name: "Google Books", search: listing(records...)}})

	got, err := svc.SearchByTitle(context.Background(), "Dune", "", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearchByTitleDefaultsLimit(t *testing.T) {
	var records []book.Record
	for i := range 15 {
		records = append(records, titled("Google Books", fmt.Sprintf("Dune %d", i)))
	}
	var seen int
	p := &fakeProvider{name: "Google Books", search: func(_ context.Context, _, _ string, limit int) ([]book.Record, error) {
		seen = limit
		return records, nil
	}}
	svc := New([]book.Provider{p})

	got, err := svc.SearchByTitle(context.Background(), "Dune", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultSearchLimit)
	assert.Equal(t, DefaultSearchLimit, seen)
}

func TestSearchByTitleEmptyTitle(t *testing.T) {
	p := &fakeProvider{name: "Google Books"}
	svc := New([]book.Provider{p})

	_, err := svc.SearchByTitle(context.Background(), "   ", "Tolkien", 10)
	require.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, p.searchCalls.Load())
}

func TestSearchByTitleAbsorbsProviderFailures(t *testing.T) {
	svc := New([]book.Provider{
		&fakeProvider{name: "Google Books", search: func(context.Context, string, string, int) ([]book.Record, error) {
			return nil, errors.New("boom")
		}},
		&fakeProvider{name: "Open Library", search: listing(titled("Open Library", "The Hobbit", "0261103342"))},
	})

	resp, err := svc.SearchWithDisplayFields(context.Background(), "The Hobbit", 10, false, "")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "exception:boom", resp.Metadata.Outcomes["Google Books"].String())
	assert.Equal(t, "ok", resp.Metadata.Outcomes["Open Library"].String())
}

func TestSearchByTitleAbandonsProviderIgnoringCancellation(t *testing.T) {
	_, search := stuck(t)
	ol := &fakeProvider{name: "Open Library", search: listing(titled("Open Library", "The Hobbit", "0261103342"))}
	svc := New([]book.Provider{
		&fakeProvider{name: "Google Books", search: search},
		ol,
	}, WithDeadline(50*time.Millisecond))

	start := time.Now()
	got, err := svc.SearchByTitle(context.Background(), "The Hobbit", "", 10)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Open Library"}, got[0].Record.Sources)

	start = time.Now()
	resp, err := svc.SearchWithDisplayFields(context.Background(), "The Hobbit", 10, false, "")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "The Hobbit", resp.Results[0].Title)
	assert.Equal(t, "timeout", resp.Metadata.Outcomes["Google Books"].String())
	assert.Equal(t, "ok", resp.Metadata.Outcomes["Open Library"].String())
	assert.False(t, resp.Metadata.Cached)
	assert.Equal(t, int32(2), ol.searchCalls.Load())
}

func TestSearchByTitleDoesNotCacheDegradedResults(t *testing.T) {
	ol := &fakeProvider{name: "Open Library", search: listing(titled("Open Library", "The Hobbit", "0261103342"))}
	svc := New([]book.Provider{
		&fakeProvider{name: "Google Books", search: func(context.Context, string, string, int) ([]book.Record, error) {
			return nil, errors.New("boom")
		}},
		ol,
	})

	for range 2 {
		got, err := svc.SearchByTitle(context.Background(), "The Hobbit", "", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, int32(2), ol.searchCalls.Load())
}

func TestSearchByTitleCachesResults(t *testing.T) {
	p := &fakeProvider{name: "Google Books", search: listing(titled("Google Books", "The Hobbit", "0261103342"))}
	svc := New([]book.Provider{p})

	first, err := svc.SearchByTitle(context.Background(), "The Hobbit", "", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Record.Title = "mutated"

	second, err := svc.SearchByTitle(context.Background(), "  the HOBBIT!", "", 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "The Hobbit", second[0].Record.Title)
	assert.Equal(t, int32(1), p.searchCalls.Load())

	_, err = svc.SearchByTitle(context.Background(), "The Hobbit", "", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.searchCalls.Load())
}

func TestSearchByTitleDoesNotCacheEmptyResults(t *testing.T) {
	p := &fakeProvider{name: "Google Books"}
	svc := New([]book.Provider{p})

	for range 2 {
		got, err := svc.SearchByTitle(context.Background(), "Nothing", "", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(2), p.searchCalls.Load())
}

func TestSearchByTitleCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &fakeProvider{name: "Google Books", search: listing(titled("Google Books", "The Hobbit"))}
	svc := New([]book.Provider{p}, WithSearchCache(4, time.Minute), WithClock(func() time.Time { return now }))

	_, err := svc.SearchByTitle(context.Background(), "The Hobbit", "", 10)
	require.NoError(t, err)
	now = now.Add(time.Minute + time.Second)
	_, err = svc.SearchByTitle(context.Background(), "The Hobbit", "", 10)
	require.NoError(t, err)

	assert.Equal(t, int32(2), p.searchCalls.Load())
}

func TestSearchByTitleCacheDisabled(t *testing.T) {
	p := &fakeProvider{name: "Google Books", search: listing(titled("Google Books", "The Hobbit"))}
	svc := New([]book.Provider{p}, WithSearchCache(0, 0))

	for range 2 {
		_, err := svc.SearchByTitle(context.Background(), "The Hobbit", "", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), p.searchCalls.Load())
}

func TestSearchWithDisplayFields(t *testing.T) {
	withISBN := titled("Google Books", "The Hobbit", "0261103342")
	withISBN.PublishedDate = book.ParsePublishedDate("1995-09-21")
	withISBN.PageCount = 310
	withISBN.CoverURL = "https://covers.example/hobbit.jpg"
	noISBN := titled("Open Library", "The Hobbit: Graphic Novel")

	svc := New([]book.Provider{
		&fakeProvider{name: "Google Books", search: listing(withISBN)},
		&fakeProvider{name: "Open Library", search: listing(noISBN)},
	})

	resp, err := svc.SearchWithDisplayFields(context.Background(), "The Hobbit", 10, false, "Tolkien")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	top := resp.Results[0]
	assert.Equal(t, "The Hobbit", top.Title)
	assert.Equal(t, "J.R.R. Tolkien", top.Author)
	assert.Equal(t, "1995", top.Year)
	assert.Equal(t, 310, top.PageCount)
	assert.Equal(t, "https://covers.example/hobbit.jpg", top.CoverURL)
	assert.Equal(t, "Google Books", top.Source)
	assert.Equal(t, "9780261103344", top.ISBN)
	require.NotNil(t, top.Record)

	md := resp.Metadata
	assert.Equal(t, "The Hobbit", md.Query)
	assert.Equal(t, "hobbit", md.NormalizedQuery)
	assert.Equal(t, "Tolkien", md.Author)
	assert.Equal(t, 10, md.Limit)
	assert.Equal(t, 2, md.Total)
	assert.False(t, md.Cached)

	resp, err = svc.SearchWithDisplayFields(context.Background(), "The Hobbit", 10, true, "Tolkien")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "The Hobbit", resp.Results[0].Title)
	assert.True(t, resp.Metadata.Cached)
	assert.True(t, resp.Metadata.ISBNRequired)
	assert.Equal(t, 1, resp.Metadata.Total)
}
