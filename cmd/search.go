package cmd

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/bookmeta/internal/config"
	apperrors "github.com/lepinkainen/bookmeta/internal/errors"
	"github.com/lepinkainen/bookmeta/internal/resolver"
	"github.com/lepinkainen/bookmeta/internal/tui"
)

// SearchCmd represents the search command
type SearchCmd struct {
	Title        string `arg:"" help:"Title to search for"`
	Author       string `short:"a" help:"Narrow and rank results by author"`
	Limit        int    `short:"n" help:"Maximum number of results" default:"10"`
	ISBNRequired bool   `help:"Drop results that carry no ISBN"`
	Interactive  bool   `short:"i" help:"Pick one result in an interactive list and print its full record"`

	OutputFlags `embed:""`
}

// Run searches both providers and prints the ranked results.
func (c *SearchCmd) Run(cfg *config.Config) error {
	svc, cleanup, err := openService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := commandContext()
	defer cancel()

	resp, err := svc.SearchWithDisplayFields(ctx, c.Title, c.Limit, c.ISBNRequired, c.Author)
	if err != nil {
		return err
	}
	slog.Debug("Search finished", "query", resp.Metadata.Query, "total", resp.Metadata.Total,
		"cached", resp.Metadata.Cached, "elapsed_ms", resp.Metadata.ElapsedMS)

	if !c.Interactive {
		return c.emit(resp, func() string { return searchMarkdown(resp) })
	}
	return c.pick(ctx, svc, resp)
}

// pick lets the user choose one result. A choice carrying an ISBN is
// resolved again by identifier so the full edition record is printed.
func (c *SearchCmd) pick(ctx context.Context, svc *resolver.Service, resp *resolver.SearchResponse) error {
	result, err := selectCandidate(resp.Metadata.Query, resp.Results)
	if err != nil {
		return err
	}

	switch result.Action {
	case tui.ActionSelected:
		if id := result.Selection.ISBN; id != "" {
			res, err := svc.ResolveByIdentifierWithWarnings(ctx, id)
			if err != nil {
				return err
			}
			if res.Record != nil {
				return c.emit(res, func() string { return resolutionMarkdown(res) })
			}
			slog.Warn("Selected edition could not be resolved, printing search data", "isbn", id)
		}
		rec := result.Selection.Record
		return c.emit(rec, func() string { return recordBuilder(rec).Build() })
	case tui.ActionStopped:
		return apperrors.NewStopProcessingError("search cancelled by user")
	default:
		slog.Info("No result selected", "query", resp.Metadata.Query)
		return nil
	}
}
