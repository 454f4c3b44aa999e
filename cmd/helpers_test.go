package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookmeta/internal/cache"
	"github.com/lepinkainen/bookmeta/internal/config"
	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	"github.com/lepinkainen/bookmeta/internal/testutil"
)

type stubProvider struct {
	name    string
	record  *book.Record
	results []book.Record
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FetchByIdentifier(context.Context, string) (*book.Record, error) {
	if s.err != nil || s.record == nil {
		return nil, s.err
	}
	r := s.record.Clone()
	return &r, nil
}

func (s *stubProvider) SearchByTitle(context.Context, string, string, int) ([]book.Record, error) {
	out := make([]book.Record, len(s.results))
	for i, r := range s.results {
		out[i] = r.Clone()
	}
	return out, s.err
}

func hobbitRecord() *book.Record {
	r := &book.Record{
		Source:        "Google Books",
		NativeID:      "pD6arNyKyi8C",
		Title:         "The Hobbit",
		Subtitle:      "Or There and Back Again",
		Authors:       []string{"J.R.R. Tolkien"},
		Publisher:     "HarperCollins",
		PublishedDate: book.ParsePublishedDate("1991-06"),
		PageCount:     310,
		Language:      "en",
		Description:   "In a hole in the ground there lived a hobbit.",
		Categories:    []string{"Fiction"},
		CoverURL:      "https://books.google.com/books/content?id=pD6arNyKyi8C&img=1&zoom=0",
	}
	r.SetIdentifiers("9780261103344")
	return r
}

// cmdHarness replaces the providers, stdout and viper state for one test.
type cmdHarness struct {
	out       *bytes.Buffer
	env       *testutil.TestEnv
	providers []book.Provider
}

func newHarness(t *testing.T, providers ...book.Provider) *cmdHarness {
	t.Helper()

	h := &cmdHarness{out: &bytes.Buffer{}, env: testutil.NewTestEnv(t), providers: providers}

	origStdout, origLog, origProviders := stdout, logOut, newProviders
	stdout = h.out
	logOut = &bytes.Buffer{}
	newProviders = func(*config.Config, *cache.CacheDB) []book.Provider { return h.providers }
	t.Cleanup(func() {
		stdout, logOut, newProviders = origStdout, origLog, origProviders
	})

	viper.Reset()
	t.Cleanup(viper.Reset)
	h.env.Chdir(".")
	return h
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("bookmeta"),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

// execute parses args and runs the command the way Execute does.
func (h *cmdHarness) execute(t *testing.T, args ...string) error {
	t.Helper()

	cli, ctx := parseCLI(t, args...)
	return run(ctx, cli)
}
