package resolver

import (
	"context"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/similarity"
)

// DisplayResult is the compact projection of a Candidate shown in result lists.
type DisplayResult struct {
	Title     string             `json:"title" yaml:"title"`
	Author    string             `json:"author" yaml:"author"`
	Year      string             `json:"year,omitempty" yaml:"year,omitempty"`
	PageCount int                `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	CoverURL  string             `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	Score     float64            `json:"score" yaml:"score"`
	Source    string             `json:"source" yaml:"source"`
	ISBN      string             `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Record    *book.MergedRecord `json:"record" yaml:"record"`
}

// SearchMetadata describes how a SearchResponse was produced.
type SearchMetadata struct {
	Query           string                  `json:"query" yaml:"query"`
	NormalizedQuery string                  `json:"normalized_query" yaml:"normalized_query"`
	Author          string                  `json:"author,omitempty" yaml:"author,omitempty"`
	Limit           int                     `json:"limit" yaml:"limit"`
	ISBNRequired    bool                    `json:"isbn_required" yaml:"isbn_required"`
	Total           int                     `json:"total" yaml:"total"`
	Cached          bool                    `json:"cached" yaml:"cached"`
	Outcomes        map[string]book.Outcome `json:"outcomes" yaml:"outcomes"`
	ElapsedMS       int64                   `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// SearchResponse pairs the display results with their metadata.
type SearchResponse struct {
	Results  []DisplayResult `json:"results" yaml:"results"`
	Metadata SearchMetadata  `json:"metadata" yaml:"metadata"`
}

// SearchWithDisplayFields runs SearchByTitle and projects each candidate for
// display. With isbnRequired, candidates carrying no ISBN at all are dropped
// after ranking and truncation, so fewer than limit results may remain.
func (s *Service) SearchWithDisplayFields(ctx context.Context, title string, limit int, isbnRequired bool, author string) (*SearchResponse, error) {
	start := s.clock()
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ranked, cached, err := s.search(ctx, title, author, limit)
	if err != nil {
		return nil, err
	}

	results := make([]DisplayResult, 0, len(ranked.Candidates))
	for _, c := range ranked.Candidates {
		if isbnRequired && !c.Record.HasISBN() {
			continue
		}
		results = append(results, displayResult(c))
	}

	return &SearchResponse{
		Results: results,
		Metadata: SearchMetadata{
			Query:           strings.TrimSpace(title),
			NormalizedQuery: similarity.NormalizeTitle(title),
			Author:          strings.TrimSpace(author),
			Limit:           limit,
			ISBNRequired:    isbnRequired,
			Total:           len(results),
			Cached:          cached,
			Outcomes:        ranked.Outcomes,
			ElapsedMS:       s.clock().Sub(start).Milliseconds(),
		},
	}, nil
}

func displayResult(c Candidate) DisplayResult {
	r := c.Record
	d := DisplayResult{
		Title:     r.Title,
		Author:    strings.Join(r.Authors, ", "),
		Year:      r.PublishedDate.Year(),
		PageCount: r.PageCount,
		CoverURL:  r.CoverURL,
		Score:     c.Score,
		Source:    strings.Join(r.Sources, ", "),
		Record:    r,
	}
	if ids := r.Identifiers(); len(ids) > 0 {
		d.ISBN = ids[0]
	}
	return d
}
