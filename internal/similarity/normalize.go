// Package similarity scores how well a candidate book matches a title/author query.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var leadingArticles = []string{"the ", "a ", "an "}

// NormalizeTitle lowercases, folds diacritics, strips one leading article and
// punctuation, and collapses whitespace.
func NormalizeTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(foldDiacritics(title)))
	for _, article := range leadingArticles {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}
	return collapse(stripPunctuation(s))
}

// NormalizeAuthor lowercases, folds diacritics, strips punctuation and collapses whitespace.
// Initials lose their dots, so "J.R.R. Tolkien" becomes "jrr tolkien".
func NormalizeAuthor(author string) string {
	return collapse(stripPunctuation(strings.ToLower(foldDiacritics(author))))
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case r == '-' || r == '_' || r == '/':
			return ' '
		default:
			return -1
		}
	}, s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
