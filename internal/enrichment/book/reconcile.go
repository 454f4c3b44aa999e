package book

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/isbn"
)

// Reconciliation is the result of guarding and merging provider results for
// one requested identifier.
type Reconciliation struct {
	// Record is nil when no provider produced usable data.
	Record *MergedRecord

	// Results carries every provider result with its final outcome.
	Results []ProviderResult

	// Warnings is always non-nil so it encodes as an empty list.
	Warnings []string
}

// Reconcile runs the edition guard over results (in provider precedence order),
// merges the survivors and applies the identifier round-trip rules.
func Reconcile(requested string, results []ProviderResult) Reconciliation {
	guarded, warnings := ApplyEditionGuard(requested, results)
	rec := Reconciliation{Results: guarded, Warnings: []string{}}
	rec.Warnings = append(rec.Warnings, warnings...)

	var merged *MergedRecord
	var survivors []string
	for _, res := range guarded {
		if res.Record == nil || !res.Outcome.Usable() {
			continue
		}
		survivors = append(survivors, res.Source)
		merged = Merge(merged, FromRecord(*res.Record))
	}

	if merged == nil {
		return rec
	}

	if len(warnings) > 0 {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("using data from %s only", strings.Join(survivors, ", ")))
	}

	requestedID := isbn.Normalize(requested)
	merged.RequestedIdentifier = requestedID
	injectRequested(&merged.Record, requestedID)

	if foreign := foreignIdentifiers(merged.Record, requestedID); len(foreign) > 0 {
		merged.MismatchDetected = true
		w := fmt.Sprintf("requested identifier %s but the merged record carries %s",
			requestedID, strings.Join(foreign, ", "))
		slog.Warn("Post-merge identifier mismatch", "requested", requestedID, "returned", strings.Join(foreign, ","))
		rec.Warnings = append(rec.Warnings, w)
	}

	merged.Warnings = append(merged.Warnings, rec.Warnings...)
	rec.Record = merged
	return rec
}

// injectRequested fills empty identifier slots from the requested identifier
// so the merged record always round-trips to the identifier that was asked for.
func injectRequested(r *Record, requested string) {
	switch {
	case isbn.IsValidISBN10(requested):
		if r.ISBN10 == "" {
			r.ISBN10 = requested
		}
		if r.ISBN13 == "" {
			r.ISBN13, _ = isbn.ToISBN13(requested)
		}
	case isbn.IsValidISBN13(requested):
		if r.ISBN13 == "" {
			r.ISBN13 = requested
		}
		if r.ISBN10 == "" && strings.HasPrefix(requested, "978") {
			r.ISBN10, _ = isbn.ToISBN10(requested)
		}
	}
}

// foreignIdentifiers lists merged identifiers outside the requested equivalence set.
func foreignIdentifiers(r Record, requested string) []string {
	want := isbn.EquivalenceSet(requested)
	var foreign []string
	for _, id := range r.Identifiers() {
		if _, ok := want[id]; !ok {
			foreign = append(foreign, id)
		}
	}
	return foreign
}
