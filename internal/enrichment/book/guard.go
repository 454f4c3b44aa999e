package book

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/isbn"
)

// ApplyEditionGuard drops every record whose identifiers are valid but share
// nothing with the requested identifier's equivalence set. Dropped results are
// returned with a mismatch outcome and a nil record; a warning names each one.
// Records without identifiers are kept since there is nothing to contradict.
func ApplyEditionGuard(requested string, results []ProviderResult) ([]ProviderResult, []string) {
	want := isbn.EquivalenceSet(requested)
	out := make([]ProviderResult, len(results))
	var warnings []string

	for i, res := range results {
		out[i] = res
		if res.Record == nil || !res.Outcome.Usable() {
			continue
		}

		have := res.Record.IdentifierSet()
		if len(have) == 0 || intersects(want, have) {
			continue
		}

		slog.Warn("Dropping mismatched edition",
			"provider", res.Source,
			"requested", isbn.Normalize(requested),
			"returned", strings.Join(res.Record.Identifiers(), ","),
		)
		warnings = append(warnings, fmt.Sprintf(
			"%s returned a different edition (%s) than requested (%s); its data was discarded",
			res.Source, strings.Join(res.Record.Identifiers(), ", "), isbn.Normalize(requested),
		))
		out[i].Record = nil
		out[i].Outcome = Outcome{Kind: OutcomeMismatch}
	}

	return out, warnings
}

func intersects(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
