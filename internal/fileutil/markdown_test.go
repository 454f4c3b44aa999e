package fileutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownBuilder(t *testing.T) {
	doc := NewMarkdownBuilder().
		AddTitle(`The "Hobbit"`).
		AddField("isbn_13", "9780261103344").
		AddField("pages", 310).
		AddField("rating", 4.25).
		AddField("mismatch_detected", false).
		AddField("empty", "").
		AddField("zero", 0).
		AddStringArray("authors", []string{"J.R.R. Tolkien", " ", "Christopher Tolkien "}).
		AddHeading("The Hobbit").
		AddParagraph("In a hole in the ground there lived a hobbit.").
		AddImage("https://covers.example/hobbit.jpg").
		AddCallout("note", "Sources", "Google Books\nOpen Library").
		AddListCallout("warning", "Warnings", []string{"first", "second"}).
		Build()

	assert.True(t, strings.HasPrefix(doc, "---\n"))
	assert.Contains(t, doc, "---\n\n# The Hobbit\n\n")

	assert.Contains(t, doc, `title: "The \"Hobbit\""`)
	assert.Contains(t, doc, `isbn_13: "9780261103344"`)
	assert.Contains(t, doc, "pages: 310")
	assert.Contains(t, doc, "rating: 4.25")
	assert.Contains(t, doc, "mismatch_detected: false")
	assert.NotContains(t, doc, "empty:")
	assert.NotContains(t, doc, "zero:")

	assert.Contains(t, doc, "authors:\n  - \"J.R.R. Tolkien\"\n  - \"Christopher Tolkien\"\n")
	assert.Contains(t, doc, "![](https://covers.example/hobbit.jpg)")
	assert.Contains(t, doc, ">[!note]- Sources\n> Google Books\n> Open Library\n")
	assert.Contains(t, doc, ">[!warning]- Warnings\n> - first\n> - second\n")
}

func TestMarkdownBuilderWithoutFrontmatter(t *testing.T) {
	doc := NewMarkdownBuilder().
		AddParagraph("plain").
		AddCallout("info", "", "untitled").
		AddListCallout("warning", "Nothing", nil).
		Build()

	assert.Equal(t, "plain\n\n>[!info]\n> untitled\n\n", doc)
}
