package book

import (
	"regexp"
	"strings"
)

var seriesMarker = regexp.MustCompile(`(?i)^series\s*:\s*(.+)$`)

// PeelSeries removes "Series: X" markers from a category list. The first
// marker found names the series; the remaining categories keep their order.
func PeelSeries(categories []string) (rest []string, series string, found bool) {
	rest = make([]string, 0, len(categories))
	for _, c := range categories {
		m := seriesMarker.FindStringSubmatch(strings.TrimSpace(c))
		if m == nil {
			rest = append(rest, c)
			continue
		}
		if !found {
			series = strings.Join(strings.Fields(strings.ReplaceAll(m[1], "_", " ")), " ")
			found = series != ""
		}
	}
	return rest, series, found
}
