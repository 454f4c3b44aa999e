package fileutil

import (
	"fmt"
	"strings"
)

// MarkdownBuilder helps construct markdown documents with frontmatter
type MarkdownBuilder struct {
	frontmatter strings.Builder
	content     strings.Builder
}

// NewMarkdownBuilder creates a new markdown builder
func NewMarkdownBuilder() *MarkdownBuilder {
	return &MarkdownBuilder{}
}

// AddTitle adds a title field to the frontmatter
func (mb *MarkdownBuilder) AddTitle(title string) *MarkdownBuilder {
	fmt.Fprintf(&mb.frontmatter, "title: %q\n", title)
	return mb
}

// AddField adds a simple key-value field to the frontmatter. Zero values are skipped.
func (mb *MarkdownBuilder) AddField(key string, value any) *MarkdownBuilder {
	switch v := value.(type) {
	case string:
		if v != "" {
			fmt.Fprintf(&mb.frontmatter, "%s: %q\n", key, v)
		}
	case int:
		if v != 0 {
			fmt.Fprintf(&mb.frontmatter, "%s: %d\n", key, v)
		}
	case float64:
		if v > 0 {
			fmt.Fprintf(&mb.frontmatter, "%s: %.2f\n", key, v)
		}
	case bool:
		fmt.Fprintf(&mb.frontmatter, "%s: %t\n", key, v)
	}
	return mb
}

// AddStringArray adds an array of strings to the frontmatter
func (mb *MarkdownBuilder) AddStringArray(key string, values []string) *MarkdownBuilder {
	if len(values) == 0 {
		return mb
	}

	mb.frontmatter.WriteString(key + ":\n")
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&mb.frontmatter, "  - %q\n", value)
		}
	}
	return mb
}

// AddHeading adds a level-one heading to the content
func (mb *MarkdownBuilder) AddHeading(text string) *MarkdownBuilder {
	if text != "" {
		fmt.Fprintf(&mb.content, "# %s\n\n", text)
	}
	return mb
}

// AddParagraph adds a paragraph of text to the content
func (mb *MarkdownBuilder) AddParagraph(text string) *MarkdownBuilder {
	if text == "" {
		return mb
	}

	mb.content.WriteString(text)
	mb.content.WriteString("\n\n")
	return mb
}

// AddImage adds an image to the content
func (mb *MarkdownBuilder) AddImage(imageURL string) *MarkdownBuilder {
	if imageURL == "" {
		return mb
	}

	fmt.Fprintf(&mb.content, "![](%s)\n\n", imageURL)
	return mb
}

// AddCallout adds a callout section to the content
func (mb *MarkdownBuilder) AddCallout(calloutType, title, content string) *MarkdownBuilder {
	if content == "" {
		return mb
	}

	if title != "" {
		fmt.Fprintf(&mb.content, ">[!%s]- %s\n", calloutType, title)
	} else {
		fmt.Fprintf(&mb.content, ">[!%s]\n", calloutType)
	}
	for line := range strings.SplitSeq(content, "\n") {
		fmt.Fprintf(&mb.content, "> %s\n", line)
	}

	mb.content.WriteString("\n")
	return mb
}

// AddListCallout adds a callout holding a bulleted list
func (mb *MarkdownBuilder) AddListCallout(calloutType, title string, items []string) *MarkdownBuilder {
	if len(items) == 0 {
		return mb
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return mb.AddCallout(calloutType, title, strings.Join(lines, "\n"))
}

// Build returns the complete markdown document as a string. The frontmatter
// block is omitted when no field was added.
func (mb *MarkdownBuilder) Build() string {
	if mb.frontmatter.Len() == 0 {
		return mb.content.String()
	}

	var doc strings.Builder
	doc.WriteString("---\n")
	doc.WriteString(mb.frontmatter.String())
	doc.WriteString("---\n\n")
	doc.WriteString(mb.content.String())
	return doc.String()
}
