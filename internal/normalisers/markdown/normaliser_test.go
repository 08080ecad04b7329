package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

func normalise(t *testing.T, path, content string) *driven.NormaliseResult {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Path:     path,
		MIMEType: "text/markdown",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.ElementsMatch(t, []string{"text/markdown", "text/x-markdown"}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_HeadingAndParagraph(t *testing.T) {
	result := normalise(t, "/docs/guide.md", "# Hello World\n\nThis is a test.")

	assert.Equal(t, "Hello World", result.Title)
	assert.Equal(t, "Hello World\n\nThis is a test.", result.Text)
	assert.Equal(t, "markdown", result.Format)
}

func TestNormalise_TextExtraction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"emphasis", "**bold** and *italic* text", "bold and italic text"},
		{"link keeps label", "See [the manual](https://example.com) first.", "See the manual first."},
		{"list items", "- first\n- second\n  - nested", "first\nsecond\nnested"},
		{"numbered list", "1. one\n2. two", "one\ntwo"},
		{"blockquote", "> quoted colour", "quoted colour"},
		{"soft break", "line one\nline two", "line one\nline two"},
		{"paragraphs", "First.\n\n\n\nSecond.", "First.\n\nSecond."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalise(t, "/doc.md", tt.input).Text)
		})
	}
}

func TestNormalise_DropsNonProse(t *testing.T) {
	content := "Intro text.\n\n" +
		"```go\nfmt.Println(\"colour\")\n```\n\n" +
		"Run `make lint` now.\n\n" +
		"![diagram](arch.png)\n\n" +
		"<div>raw html</div>\n\n" +
		"Visit https://example.com today."

	result := normalise(t, "/doc.md", content)

	assert.Contains(t, result.Text, "Intro text.")
	assert.Contains(t, result.Text, "Run  now.")
	assert.NotContains(t, result.Text, "Println")
	assert.NotContains(t, result.Text, "make lint")
	assert.NotContains(t, result.Text, "diagram")
	assert.NotContains(t, result.Text, "raw html")
	assert.NotContains(t, result.Text, "example.com")
}

func TestNormalise_Title(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"first h1", "Intro\n\n# Main *Title*\n\n# Second", "/doc.md", "Main Title"},
		{"h2 only falls back to filename", "## Section\n\nNo H1.", "/user_guide.md", "user guide"},
		{"front matter wins", "---\ntitle: Handbuch\n---\n# Kapitel", "/doc.md", "Handbuch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalise(t, tt.path, tt.content).Title)
		})
	}
}

func TestNormalise_FrontMatter(t *testing.T) {
	result := normalise(t, "/de/guide.md", "---\ntitle: Handbuch\nlang: de-DE\n---\n# Kapitel\n\nDer Text.")

	assert.Equal(t, "de-DE", result.Language)
	assert.Equal(t, "Kapitel\n\nDer Text.", result.Text)
}

func TestNormalise_FrontMatterLanguageKey(t *testing.T) {
	result := normalise(t, "/fr/guide.md", "---\nlanguage: fr\n---\nBonjour.")

	assert.Equal(t, "fr", result.Language)
	assert.Equal(t, "Bonjour.", result.Text)
}

func TestNormalise_InvalidFrontMatter(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Path:    "/doc.md",
		Content: []byte("---\ntitle: [unclosed\n---\nBody"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	result := normalise(t, "/empty.md", "")

	assert.Empty(t, result.Text)
	assert.Equal(t, "empty", result.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}
