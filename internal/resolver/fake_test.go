package resolver

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
)

type fakeProvider struct {
	name   string
	fetch  func(ctx context.Context, id string) (*book.Record, error)
	search func(ctx context.Context, title, author string, limit int) ([]book.Record, error)

	fetchCalls  atomic.Int32
	searchCalls atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchByIdentifier(ctx context.Context, id string) (*book.Record, error) {
	f.fetchCalls.Add(1)
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(ctx, id)
}

func (f *fakeProvider) SearchByTitle(ctx context.Context, title, author string, limit int) ([]book.Record, error) {
	f.searchCalls.Add(1)
	if f.search == nil {
		return nil, nil
	}
	return f.search(ctx, title, author, limit)
}

func returning(r book.Record) func(context.Context, string) (*book.Record, error) {
	return func(context.Context, string) (*book.Record, error) {
		return &r, nil
	}
}

func listing(records ...book.Record) func(context.Context, string, string, int) ([]book.Record, error) {
	return func(context.Context, string, string, int) ([]book.Record, error) {
		out := make([]book.Record, len(records))
		for i, r := range records {
			out[i] = r.Clone()
		}
		return out, nil
	}
}

func hanging(ctx context.Context, _ string) (*book.Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// stuck returns a provider call that ignores its context and only returns
// once the test has finished.
func stuck(t *testing.T) (func(context.Context, string) (*book.Record, error), func(context.Context, string, string, int) ([]book.Record, error)) {
	t.Helper()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	fetch := func(context.Context, string) (*book.Record, error) {
		<-release
		return nil, nil
	}
	search := func(context.Context, string, string, int) ([]book.Record, error) {
		<-release
		return nil, nil
	}
	return fetch, search
}

func hobbit(source string) book.Record {
	r := book.Record{
		Source:        source,
		Title:         "The Hobbit",
		Authors:       []string{"J.R.R. Tolkien"},
		Publisher:     "HarperCollins",
		PublishedDate: book.ParsePublishedDate("1995"),
		PageCount:     310,
	}
	r.SetIdentifiers("0261103342")
	return r
}
