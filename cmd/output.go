package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/fileutil"
	"github.com/lepinkainen/bookmeta/internal/resolver"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// OutputFlags are shared by commands that print a result.
type OutputFlags struct {
	Format    string `short:"F" help:"Output format: json, yaml, markdown" enum:"json,yaml,markdown" default:"json"`
	Output    string `short:"o" help:"Write the result to this file instead of stdout" type:"path"`
	Overwrite bool   `help:"Overwrite the output file if it exists"`
}

// emit renders v in the selected format to stdout or to the output file.
// markdown renders the markdown form of v.
func (o OutputFlags) emit(v any, markdown func() string) error {
	if o.Output != "" {
		return o.writeFile(v, markdown)
	}

	var data []byte
	switch o.Format {
	case FormatYAML:
		b, err := fileutil.MarshalYAML(v)
		if err != nil {
			return err
		}
		data = b
	case FormatMarkdown:
		data = []byte(markdown())
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		data = append(b, '\n')
	}

	_, err := stdout.Write(data)
	return err
}

func (o OutputFlags) writeFile(v any, markdown func() string) error {
	var (
		written bool
		err     error
	)
	switch o.Format {
	case FormatYAML:
		written, err = fileutil.WriteYAMLFile(v, o.Output, o.Overwrite)
	case FormatMarkdown:
		written, err = fileutil.WriteFileWithOverwrite(o.Output, []byte(markdown()), 0644, o.Overwrite)
	default:
		written, err = fileutil.WriteJSONFile(v, o.Output, o.Overwrite)
	}
	if err != nil {
		return err
	}
	if written {
		slog.Info("Wrote output", "path", o.Output, "format", o.Format)
	}
	return nil
}

// outcomeLines lists provider outcomes sorted by provider name.
func outcomeLines(outcomes map[string]book.Outcome) []string {
	names := slices.Sorted(maps.Keys(outcomes))
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ": " + outcomes[name].String()
	}
	return lines
}

func resolutionMarkdown(res *resolver.Resolution) string {
	rec := res.Record
	if rec == nil {
		return fileutil.NewMarkdownBuilder().
			AddField("requested_identifier", res.RequestedIdentifier).
			AddHeading("No usable record").
			AddListCallout("note", "Providers", outcomeLines(res.Outcomes)).
			AddListCallout("warning", "Warnings", res.Warnings).
			Build()
	}

	return recordBuilder(rec).
		AddListCallout("note", "Providers", outcomeLines(res.Outcomes)).
		AddListCallout("warning", "Warnings", rec.Warnings).
		Build()
}

func recordBuilder(rec *book.MergedRecord) *fileutil.MarkdownBuilder {
	return fileutil.NewMarkdownBuilder().
		AddTitle(rec.Title).
		AddField("subtitle", rec.Subtitle).
		AddStringArray("authors", rec.Authors).
		AddField("publisher", rec.Publisher).
		AddField("published", rec.PublishedDate.String()).
		AddField("pages", rec.PageCount).
		AddField("language", rec.Language).
		AddField("series", rec.Series).
		AddField("isbn_10", rec.ISBN10).
		AddField("isbn_13", rec.ISBN13).
		AddField("rating", rec.AverageRating).
		AddField("ratings_count", rec.RatingsCount).
		AddStringArray("categories", rec.Categories).
		AddStringArray("sources", rec.Sources).
		AddField("cover_source", rec.CoverSource).
		AddField("mismatch_detected", rec.MismatchDetected).
		AddHeading(rec.Title).
		AddImage(rec.CoverURL).
		AddParagraph(rec.Description)
}

func searchMarkdown(resp *resolver.SearchResponse) string {
	md := resp.Metadata
	mb := fileutil.NewMarkdownBuilder().
		AddField("query", md.Query).
		AddField("author", md.Author).
		AddField("limit", md.Limit).
		AddField("isbn_required", md.ISBNRequired).
		AddField("total", md.Total).
		AddField("cached", md.Cached).
		AddHeading("Results for " + md.Query)

	lines := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		lines[i] = searchLine(i+1, r)
	}
	if len(lines) > 0 {
		mb.AddParagraph(strings.Join(lines, "\n"))
	} else {
		mb.AddParagraph("No results.")
	}

	return mb.AddListCallout("note", "Providers", outcomeLines(md.Outcomes)).Build()
}

func searchLine(n int, r resolver.DisplayResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. **%s**", n, r.Title)
	if r.Author != "" {
		fmt.Fprintf(&sb, " by %s", r.Author)
	}
	if r.Year != "" {
		fmt.Fprintf(&sb, " (%s)", r.Year)
	}
	if r.ISBN != "" {
		fmt.Fprintf(&sb, " ISBN %s", r.ISBN)
	}
	fmt.Fprintf(&sb, " [%s, %.2f]", r.Source, r.Score)
	return sb.String()
}
