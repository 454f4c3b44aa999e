package book

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// MergedRecord is the reconciled view of one book across providers.
type MergedRecord struct {
	Record `yaml:",inline"`

	RequestedIdentifier string   `json:"requested_identifier,omitempty" yaml:"requested_identifier,omitempty"`
	Sources             []string `json:"sources" yaml:"sources"`
	CoverSource         string   `json:"cover_source,omitempty" yaml:"cover_source,omitempty"`
	Warnings            []string `json:"warnings" yaml:"warnings"`
	MismatchDetected    bool     `json:"mismatch_detected" yaml:"mismatch_detected"`
}

// FromRecord wraps a single provider record.
func FromRecord(r Record) *MergedRecord {
	m := &MergedRecord{
		Record:   r.Clone(),
		Sources:  []string{r.Source},
		Warnings: []string{},
	}
	if r.CoverURL != "" {
		m.CoverSource = r.Source
	}
	return m
}

// Clone returns a deep copy of the merged record.
func (m *MergedRecord) Clone() *MergedRecord {
	if m == nil {
		return nil
	}
	c := *m
	c.Record = m.Record.Clone()
	c.Sources = slices.Clone(m.Sources)
	c.Warnings = slices.Clone(m.Warnings)
	return &c
}

// AddWarning appends a display warning.
func (m *MergedRecord) AddWarning(w string) {
	m.Warnings = append(m.Warnings, w)
}

// Merge combines two records field by field. a takes precedence on ties;
// either argument may be nil. The inputs are not modified.
func Merge(a, b *MergedRecord) *MergedRecord {
	switch {
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	}

	out := &MergedRecord{
		Record:              mergeFields(a.Record, b.Record),
		RequestedIdentifier: a.RequestedIdentifier,
		Sources:             unionFold(a.Sources, b.Sources),
		Warnings:            append(slices.Clone(a.Warnings), b.Warnings...),
		MismatchDetected:    a.MismatchDetected || b.MismatchDetected,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if out.RequestedIdentifier == "" {
		out.RequestedIdentifier = b.RequestedIdentifier
	}

	switch {
	case a.CoverURL != "":
		out.CoverSource = a.CoverSource
	case b.CoverURL != "":
		out.CoverSource = b.CoverSource
	}

	return out
}

func mergeFields(a, b Record) Record {
	out := Record{
		Source:      a.Source,
		NativeID:    firstNonEmpty(a.NativeID, b.NativeID),
		Title:       longer(a.Title, b.Title),
		Subtitle:    longer(a.Subtitle, b.Subtitle),
		Publisher:   longer(a.Publisher, b.Publisher),
		Description: longer(a.Description, b.Description),
		Language:    firstNonEmpty(a.Language, b.Language),
		CoverURL:    firstNonEmpty(a.CoverURL, b.CoverURL),
		PageCount:   max(a.PageCount, b.PageCount),
		Authors:     unionFold(a.Authors, b.Authors),
		Categories:  unionFold(a.Categories, b.Categories),
		ISBN13:      firstNonEmpty(a.ISBN13, b.ISBN13),
		ISBN10:      firstNonEmpty(a.ISBN10, b.ISBN10),
	}

	out.PublishedDate = a.PublishedDate
	if b.PublishedDate.Specificity > a.PublishedDate.Specificity {
		out.PublishedDate = b.PublishedDate
	}

	out.AverageRating, out.RatingsCount = a.AverageRating, a.RatingsCount
	if a.AverageRating == 0 && a.RatingsCount == 0 {
		out.AverageRating, out.RatingsCount = b.AverageRating, b.RatingsCount
	}

	switch {
	case a.SeriesFromMarker && a.Series != "":
		out.Series, out.SeriesFromMarker = a.Series, true
	case b.SeriesFromMarker && b.Series != "":
		out.Series, out.SeriesFromMarker = b.Series, true
	default:
		out.Series = firstNonEmpty(a.Series, b.Series)
	}

	return out
}

// longer returns the longer of two strings, preferring a on equal length.
func longer(a, b string) string {
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		return b
	}
	return a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// unionFold merges two string slices keeping a's order first and dropping
// case-insensitive duplicates and blanks.
func unionFold(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// DedupeFold removes blank and case-insensitive duplicate entries, keeping order.
func DedupeFold(values []string) []string {
	return unionFold(values, nil)
}
