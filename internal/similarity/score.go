package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Weights holds the tunable scoring constants.
type Weights struct {
	ExactAuthor      float64
	PartialAuthor    float64
	LastName         float64
	ContainmentFloor float64
}

// DefaultWeights are the empirically chosen author bonuses and title containment floor.
var DefaultWeights = Weights{
	ExactAuthor:      0.20,
	PartialAuthor:    0.12,
	LastName:         0.08,
	ContainmentFloor: 0.85,
}

// Scorer computes candidate relevance against one normalized query.
type Scorer struct {
	weights Weights
	title   string
	author  string
}

// NewScorer prepares a scorer for the given raw title and optional author.
func NewScorer(title, author string, weights Weights) *Scorer {
	return &Scorer{
		weights: weights,
		title:   NormalizeTitle(title),
		author:  NormalizeAuthor(author),
	}
}

// Title returns the normalized query title.
func (s *Scorer) Title() string { return s.title }

// Author returns the normalized query author.
func (s *Scorer) Author() string { return s.author }

// Score returns the relevance of a candidate in [0, 1].
func (s *Scorer) Score(title string, authors []string) float64 {
	score := s.TitleScore(title)
	if s.author != "" && len(authors) > 0 {
		score += s.AuthorBonus(authors)
	}
	return min(score, 1.0)
}

// TitleScore compares the normalized candidate title with the query.
func (s *Scorer) TitleScore(title string) float64 {
	candidate := NormalizeTitle(title)
	if s.title == "" || candidate == "" {
		return 0
	}
	if candidate == s.title {
		return 1.0
	}

	score := Ratio(s.title, candidate)
	if strings.Contains(candidate, s.title) || strings.Contains(s.title, candidate) {
		score = max(score, s.weights.ContainmentFloor)
	}
	return score
}

// AuthorBonus returns the best bonus earned by any of the candidate authors.
func (s *Scorer) AuthorBonus(authors []string) float64 {
	if s.author == "" {
		return 0
	}

	best := 0.0
	for _, a := range authors {
		name := NormalizeAuthor(a)
		if name == "" {
			continue
		}
		switch {
		case name == s.author:
			best = max(best, s.weights.ExactAuthor)
		case strings.Contains(name, s.author) || strings.Contains(s.author, name):
			best = max(best, s.weights.PartialAuthor)
		case lastName(name) == lastName(s.author):
			best = max(best, s.weights.LastName)
		}
	}
	return best
}

// Ratio is the longest-matching-blocks similarity of two strings: twice the
// number of matched characters over the total length.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func lastName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
