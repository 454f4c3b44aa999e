// Package book defines the common book record shape shared by all catalog
// providers, together with the rules for validating and reconciling records
// coming from more than one source.
package book

import (
	"context"
	"slices"

	"github.com/lepinkainen/bookmeta/internal/isbn"
)

// Provider is a catalog source that can look books up by ISBN or search by title.
// Implementations map their native schema into Record and handle their own
// timeouts, rate limiting and caching.
type Provider interface {
	// Name returns the human-readable name of the source (e.g., "Open Library").
	Name() string

	// FetchByIdentifier retrieves the edition matching the given normalized ISBN.
	// Returns nil, nil if the book was not found.
	// Returns nil, error for transport, status or decoding failures.
	FetchByIdentifier(ctx context.Context, id string) (*Record, error)

	// SearchByTitle returns up to limit*2 candidate records for the title,
	// optionally narrowed by author.
	SearchByTitle(ctx context.Context, title, author string, limit int) ([]Record, error)
}

// Record is one provider's view of a book, already mapped to the common shape.
type Record struct {
	Source   string `json:"source" yaml:"source"`
	NativeID string `json:"native_id,omitempty" yaml:"native_id,omitempty"`

	Title         string        `json:"title" yaml:"title"`
	Subtitle      string        `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Authors       []string      `json:"authors,omitempty" yaml:"authors,omitempty"`
	Publisher     string        `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublishedDate PublishedDate `json:"published_date" yaml:"published_date"`
	PageCount     int           `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	Language      string        `json:"language,omitempty" yaml:"language,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Categories    []string      `json:"categories,omitempty" yaml:"categories,omitempty"`
	CoverURL      string        `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`

	ISBN10 string `json:"isbn_10,omitempty" yaml:"isbn_10,omitempty"`
	ISBN13 string `json:"isbn_13,omitempty" yaml:"isbn_13,omitempty"`

	// Series is set from an explicit "Series: X" category marker when
	// SeriesFromMarker is true, otherwise from the provider's generic series field.
	Series           string `json:"series,omitempty" yaml:"series,omitempty"`
	SeriesFromMarker bool   `json:"series_from_marker,omitempty" yaml:"series_from_marker,omitempty"`

	AverageRating float64 `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	RatingsCount  int     `json:"ratings_count,omitempty" yaml:"ratings_count,omitempty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.Authors = slices.Clone(r.Authors)
	r.Categories = slices.Clone(r.Categories)
	return r
}

// Identifiers returns the record's non-empty ISBNs, 13-digit form first.
func (r Record) Identifiers() []string {
	ids := make([]string, 0, 2)
	if r.ISBN13 != "" {
		ids = append(ids, r.ISBN13)
	}
	if r.ISBN10 != "" {
		ids = append(ids, r.ISBN10)
	}
	return ids
}

// IdentifierSet is the union of the equivalence sets of the record's ISBNs.
// It is empty when the record carries no valid identifier.
func (r Record) IdentifierSet() map[string]struct{} {
	set := make(map[string]struct{}, 4)
	for _, id := range r.Identifiers() {
		for eq := range isbn.EquivalenceSet(id) {
			set[eq] = struct{}{}
		}
	}
	return set
}

// HasISBN reports whether the record carries either ISBN form.
func (r Record) HasISBN() bool {
	return r.ISBN10 != "" || r.ISBN13 != ""
}

// SetIdentifiers stores the valid forms of the given raw identifiers and fills
// in a missing form by conversion when possible.
func (r *Record) SetIdentifiers(raw ...string) {
	for _, id := range raw {
		s := isbn.Normalize(id)
		switch {
		case r.ISBN13 == "" && isbn.IsValidISBN13(s):
			r.ISBN13 = s
		case r.ISBN10 == "" && isbn.IsValidISBN10(s):
			r.ISBN10 = s
		}
	}

	if r.ISBN13 == "" && r.ISBN10 != "" {
		r.ISBN13, _ = isbn.ToISBN13(r.ISBN10)
	}
	if r.ISBN10 == "" && len(r.ISBN13) == 13 && r.ISBN13[:3] == "978" {
		r.ISBN10, _ = isbn.ToISBN10(r.ISBN13)
	}
}
