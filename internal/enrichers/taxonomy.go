package enrichers

import (
	"strings"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"golang.org/x/text/language"
)

// splitCategories flattens hierarchical categories such as
// "Fiction / Fantasy / General" into their segments, dropping "General".
// An explicit series marker is peeled off first.
func splitCategories(raw []string) (categories []string, series string, found bool) {
	rest, series, found := book.PeelSeries(raw)

	var out []string
	for _, c := range rest {
		for _, part := range strings.Split(c, " / ") {
			part = strings.TrimSpace(part)
			if part == "" || strings.EqualFold(part, "general") {
				continue
			}
			out = append(out, part)
		}
	}
	return book.DedupeFold(out), series, found
}

// canonicalLanguage maps provider language codes ("eng", "/languages/eng",
// "en-US") to a two-letter ISO 639-1 code where one exists.
func canonicalLanguage(raw string) string {
	code := strings.TrimSpace(raw)
	if i := strings.LastIndex(code, "/"); i >= 0 {
		code = code[i+1:]
	}
	if code == "" {
		return ""
	}

	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}

// descriptionText handles Open Library descriptions, which are either a
// plain string or an object with a "value" key.
func descriptionText(desc any) string {
	switch v := desc.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// subjectNames converts Open Library subject lists, which hold either plain
// strings or {"name": ...} objects, into names.
func subjectNames(items []any) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			result = append(result, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				result = append(result, name)
			}
		}
	}
	return result
}
