package book

import (
	"regexp"
	"strings"
	"time"
)

// Specificity ranks how precise a publication date is.
type Specificity int

const (
	SpecificityNone Specificity = iota
	SpecificityYear
	SpecificityMonth
	SpecificityDay
)

// PublishedDate is a publication date normalized to YYYY-MM-DD. Components
// beyond Specificity are padded with 01.
type PublishedDate struct {
	Value       string      `json:"value,omitempty" yaml:"value,omitempty"`
	Specificity Specificity `json:"specificity" yaml:"specificity"`
	Raw         string      `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Year returns the four-digit year, or "" when no date is known.
func (d PublishedDate) Year() string {
	if d.Specificity == SpecificityNone || len(d.Value) < 4 {
		return ""
	}
	return d.Value[:4]
}

// String renders the date at its real precision: "1995", "1995-09" or
// "1995-09-21". Unparsed dates fall back to the raw provider text.
func (d PublishedDate) String() string {
	switch {
	case d.Specificity == SpecificityNone:
		return strings.TrimSpace(d.Raw)
	case len(d.Value) < 10:
		return d.Value
	case d.Specificity == SpecificityYear:
		return d.Value[:4]
	case d.Specificity == SpecificityMonth:
		return d.Value[:7]
	default:
		return d.Value
	}
}

type dateLayout struct {
	layout      string
	specificity Specificity
}

var dateLayouts = []dateLayout{
	{"2006-01-02", SpecificityDay},
	{time.RFC3339, SpecificityDay},
	{"01/02/2006", SpecificityDay},
	{"1/2/2006", SpecificityDay},
	{"January 2, 2006", SpecificityDay},
	{"Jan 2, 2006", SpecificityDay},
	{"January 2 2006", SpecificityDay},
	{"Jan 2 2006", SpecificityDay},
	{"2 January 2006", SpecificityDay},
	{"2 Jan 2006", SpecificityDay},
	{"2006-01", SpecificityMonth},
	{"01/2006", SpecificityMonth},
	{"January 2006", SpecificityMonth},
	{"Jan 2006", SpecificityMonth},
	{"January, 2006", SpecificityMonth},
	{"2006", SpecificityYear},
}

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])([12][0-9]{3})(?:[^0-9]|$)`)

// ParsePublishedDate normalizes the free-text date formats used by catalog
// providers. Text that matches no layout falls back to any embedded year.
func ParsePublishedDate(raw string) PublishedDate {
	text := strings.TrimSpace(raw)
	text = strings.TrimSuffix(text, ".")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return PublishedDate{}
	}

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, text)
		if err != nil {
			continue
		}
		return PublishedDate{
			Value:       t.Format("2006-01-02"),
			Specificity: l.specificity,
			Raw:         raw,
		}
	}

	if m := yearPattern.FindStringSubmatch(text); m != nil {
		return PublishedDate{Value: m[1] + "-01-01", Specificity: SpecificityYear, Raw: raw}
	}

	return PublishedDate{Raw: raw}
}
