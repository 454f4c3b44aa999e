package resolver

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/isbn"
	"github.com/lepinkainen/bookmeta/internal/resultcache"
	"github.com/lepinkainen/bookmeta/internal/similarity"
)

// Candidate is one ranked title search result. Record.Sources lists every
// provider that returned it.
type Candidate struct {
	Record *book.MergedRecord `json:"record" yaml:"record"`
	Score  float64            `json:"score" yaml:"score"`

	key string
}

// Key returns the deduplication key: the canonical ISBN-13 when known,
// otherwise a provider-scoped synthetic key.
func (c Candidate) Key() string {
	return c.key
}

func (c Candidate) clone() Candidate {
	c.Record = c.Record.Clone()
	return c
}

// rankedResults is what the search cache stores.
type rankedResults struct {
	Candidates []Candidate
	Outcomes   map[string]book.Outcome
}

func (r *rankedResults) clone() *rankedResults {
	if r == nil {
		return nil
	}
	out := &rankedResults{
		Candidates: make([]Candidate, len(r.Candidates)),
		Outcomes:   maps.Clone(r.Outcomes),
	}
	for i, c := range r.Candidates {
		out.Candidates[i] = c.clone()
	}
	return out
}

// SearchByTitle queries every provider for title (and optional author),
// merges candidates describing the same edition and returns at most limit
// candidates, most relevant first.
func (s *Service) SearchByTitle(ctx context.Context, title, author string, limit int) ([]Candidate, error) {
	ranked, _, err := s.search(ctx, title, author, limit)
	if err != nil {
		return nil, err
	}
	return ranked.Candidates, nil
}

// search returns the ranked results and whether they came from the cache.
func (s *Service) search(ctx context.Context, title, author string, limit int) (*rankedResults, bool, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return nil, false, ErrEmptyTitle
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	key := resultcache.Key{
		Title:  similarity.NormalizeTitle(title),
		Author: similarity.NormalizeAuthor(author),
		Limit:  limit,
	}
	if cached, ok := s.searchCache.Get(key); ok {
		return cached, true, nil
	}

	ranked := s.rank(ctx, title, author, limit)
	logOutcomes("Searched title", title, ranked.Outcomes)

	if len(ranked.Candidates) > 0 && allAnswered(ranked.Outcomes) {
		s.searchCache.Put(key, ranked)
	}
	return ranked, false, nil
}

// allAnswered reports whether every provider returned ok or empty. Rankings
// missing a provider because of a timeout or error are not worth caching.
func allAnswered(outcomes map[string]book.Outcome) bool {
	for _, o := range outcomes {
		if o.Kind != book.OutcomeOK && o.Kind != book.OutcomeEmpty {
			return false
		}
	}
	return true
}

func (s *Service) rank(ctx context.Context, title, author string, limit int) *rankedResults {
	replies := fanOut(ctx, s.deadline, s.providers, func(ctx context.Context, p book.Provider) ([]book.Record, error) {
		return p.SearchByTitle(ctx, title, author, limit)
	})

	scorer := similarity.NewScorer(title, author, s.weights)
	out := &rankedResults{Outcomes: make(map[string]book.Outcome, len(replies))}
	byKey := make(map[string]int)

	for i, reply := range replies {
		name := s.providers[i].Name()
		if reply.err != nil {
			out.Outcomes[name] = book.OutcomeOf(false, reply.err)
			continue
		}
		out.Outcomes[name] = book.OutcomeOf(len(reply.value) > 0, nil)

		for j, rec := range reply.value {
			if rec.Source == "" {
				rec.Source = name
			}
			key := candidateKey(rec, j)
			score := scorer.Score(rec.Title, rec.Authors)

			if idx, ok := byKey[key]; ok {
				existing := &out.Candidates[idx]
				existing.Record = book.Merge(existing.Record, book.FromRecord(rec))
				existing.Score = max(existing.Score, score)
				continue
			}

			byKey[key] = len(out.Candidates)
			out.Candidates = append(out.Candidates, Candidate{
				Record: book.FromRecord(rec),
				Score:  score,
				key:    key,
			})
		}
	}

	sort.SliceStable(out.Candidates, func(a, b int) bool {
		return out.Candidates[a].Score > out.Candidates[b].Score
	})
	if len(out.Candidates) > limit {
		out.Candidates = slices.Clip(out.Candidates[:limit])
	}
	return out
}

// candidateKey keys a record by canonical ISBN-13 so the 10- and 13-digit
// forms of one edition collide. Records without an ISBN get a key scoped to
// their provider, which never collides across providers.
func candidateKey(r book.Record, index int) string {
	for _, id := range r.Identifiers() {
		if canonical := isbn.Canonical(id); canonical != "" {
			return canonical
		}
	}
	if r.NativeID != "" {
		return r.Source + ":" + r.NativeID
	}
	return fmt.Sprintf("%s#%d", r.Source, index)
}
