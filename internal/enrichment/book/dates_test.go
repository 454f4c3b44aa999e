package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePublishedDate(t *testing.T) {
	tests := []struct {
		raw         string
		value       string
		specificity Specificity
	}{
		{"1997", "1997-01-01", SpecificityYear},
		{"1997-06", "1997-06-01", SpecificityMonth},
		{"1997-06-26", "1997-06-26", SpecificityDay},
		{"06/26/1997", "1997-06-26", SpecificityDay},
		{"June 26, 1997", "1997-06-26", SpecificityDay},
		{"Jun 26, 1997", "1997-06-26", SpecificityDay},
		{"26 June 1997", "1997-06-26", SpecificityDay},
		{"June 1997", "1997-06-01", SpecificityMonth},
		{"  1997. ", "1997-01-01", SpecificityYear},
		{"c1997", "1997-01-01", SpecificityYear},
		{"[1997?]", "1997-01-01", SpecificityYear},
		{"", "", SpecificityNone},
		{"unknown", "", SpecificityNone},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParsePublishedDate(tt.raw)
			assert.Equal(t, tt.value, got.Value)
			assert.Equal(t, tt.specificity, got.Specificity)
		})
	}
}

func TestPublishedDateYear(t *testing.T) {
	assert.Equal(t, "2004", ParsePublishedDate("2004-03").Year())
	assert.Equal(t, "", ParsePublishedDate("n.d.").Year())
}

func TestPublishedDateString(t *testing.T) {
	assert.Equal(t, "1937", ParsePublishedDate("1937").String())
	assert.Equal(t, "2004-03", ParsePublishedDate("March 2004").String())
	assert.Equal(t, "1997-06-26", ParsePublishedDate("June 26, 1997").String())
	assert.Equal(t, "n.d.", ParsePublishedDate(" n.d. ").String())
	assert.Equal(t, "", PublishedDate{}.String())
}

func TestPeelSeries(t *testing.T) {
	rest, series, found := PeelSeries([]string{"Manga", "series:Fruits_Basket", "Series: Other", "Comedy"})
	assert.True(t, found)
	assert.Equal(t, "Fruits Basket", series)
	assert.Equal(t, []string{"Manga", "Comedy"}, rest)

	rest, series, found = PeelSeries([]string{"Fantasy"})
	assert.False(t, found)
	assert.Empty(t, series)
	assert.Equal(t, []string{"Fantasy"}, rest)
}
