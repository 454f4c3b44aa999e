package cmd

import (
	"log/slog"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/config"
)

// ISBNCmd represents the isbn command
type ISBNCmd struct {
	Identifier string `arg:"" help:"ISBN-10 or ISBN-13; hyphens and spaces are ignored"`

	OutputFlags `embed:""`
}

// Run resolves the identifier. Only an invalid identifier is an error; when
// no provider has usable data the per-provider outcomes are printed instead.
func (c *ISBNCmd) Run(cfg *config.Config) error {
	svc, cleanup, err := openService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := commandContext()
	defer cancel()

	res, err := svc.ResolveByIdentifierWithWarnings(ctx, c.Identifier)
	if err != nil {
		return err
	}

	if res.Record == nil {
		slog.Warn("No usable record", "isbn", res.RequestedIdentifier, "outcomes", strings.Join(outcomeLines(res.Outcomes), "; "))
	}
	for _, w := range res.Warnings {
		slog.Warn(w, "isbn", res.RequestedIdentifier)
	}

	return c.emit(res, func() string { return resolutionMarkdown(res) })
}
