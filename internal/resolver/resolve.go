package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/isbn"
)

// Resolution is the full result of resolving one identifier, suitable for display.
type Resolution struct {
	RequestedIdentifier string                  `json:"requested_identifier" yaml:"requested_identifier"`
	Record              *book.MergedRecord      `json:"record" yaml:"record"`
	Outcomes            map[string]book.Outcome `json:"outcomes" yaml:"outcomes"`
	Warnings            []string                `json:"warnings" yaml:"warnings"`
	MismatchDetected    bool                    `json:"mismatch_detected" yaml:"mismatch_detected"`
}

// Err returns book.ErrNoUsableRecord when no provider produced usable data.
func (r *Resolution) Err() error {
	if r.Record == nil {
		return book.ErrNoUsableRecord
	}
	return nil
}

// ResolveByIdentifier resolves a raw ISBN into one merged record plus the
// outcome of every provider call. The record is nil when no provider
// produced usable data. The only error is book.ErrInvalidIdentifier, returned
// before any provider is contacted.
func (s *Service) ResolveByIdentifier(ctx context.Context, raw string) (*book.MergedRecord, map[string]book.Outcome, error) {
	res, err := s.ResolveByIdentifierWithWarnings(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	return res.Record, res.Outcomes, nil
}

// ResolveByIdentifierWithWarnings is ResolveByIdentifier that also surfaces
// the display warnings and the post-merge mismatch flag.
func (s *Service) ResolveByIdentifierWithWarnings(ctx context.Context, raw string) (*Resolution, error) {
	id := isbn.Normalize(raw)
	if !isbn.IsValid(id) {
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidIdentifier, raw)
	}

	replies := fanOut(ctx, s.deadline, s.providers, func(ctx context.Context, p book.Provider) (*book.Record, error) {
		return p.FetchByIdentifier(ctx, id)
	})

	results := make([]book.ProviderResult, len(replies))
	for i, r := range replies {
		var record *book.Record
		if r.err == nil {
			record = r.value
		}
		results[i] = book.ProviderResult{
			Source:  s.providers[i].Name(),
			Record:  record,
			Outcome: book.OutcomeOf(record != nil, r.err),
		}
	}

	rec := book.Reconcile(id, results)
	res := &Resolution{
		RequestedIdentifier: id,
		Record:              rec.Record,
		Outcomes:            book.Outcomes(rec.Results),
		Warnings:            rec.Warnings,
	}
	if rec.Record != nil {
		res.MismatchDetected = rec.Record.MismatchDetected
	}

	logOutcomes("Resolved identifier", id, res.Outcomes)
	return res, nil
}

func logOutcomes(msg, query string, outcomes map[string]book.Outcome) {
	attrs := make([]any, 0, 2+2*len(outcomes))
	attrs = append(attrs, "query", query)
	for name, o := range outcomes {
		attrs = append(attrs, name, o.String())
	}
	slog.Debug(msg, attrs...)
}
