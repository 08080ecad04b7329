package html

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
		MIMEType: "text/html",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.ElementsMatch(t, []string{"text/html", "application/xhtml+xml"}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Page(t *testing.T) {
	page := `<!DOCTYPE html>
<html lang="de">
<head><meta charset="utf-8"><title>Test Page</title></head>
<body><p>Hello World</p></body>
</html>`

	result := normalise(t, "/site/index.html", page)

	assert.Equal(t, "Test Page", result.Title)
	assert.Equal(t, "Hello World", result.Text)
	assert.Equal(t, "html", result.Format)
	assert.Equal(t, "de", result.Language)
}

func TestNormalise_Text(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"inline elements", `<p>Hello <b>bold</b> <a href="#">link</a></p>`, "Hello bold link"},
		{"line breaks", "line one<br>line two<br/>line three", "line one\nline two\nline three"},
		{"list", "<ul><li>One</li><li>Two</li></ul>", "One\nTwo"},
		{"headings", "<h1>Title</h1><p>Body</p>", "Title\nBody"},
		{"entities", "<p>caf&eacute; &lt;tag&gt; &amp; more</p>", "café <tag> & more"},
		{"whitespace", "<p>  many   spaces\n\there </p>", "many spaces here"},
		{"comments", "<p>kept<!-- hidden --></p>", "kept"},
		{"script and style", "<p>Keep</p><script>var colour = 1;</script><style>p { color: red }</style><p>Also</p>", "Keep\nAlso"},
		{"noscript", "<noscript>Enable JavaScript</noscript><p>Content</p>", "Content"},
		{"svg", `<p>Icon <svg viewBox="0 0 1 1"><text>label</text></svg> here</p>`, "Icon here"},
		{"table", "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></table>", "a b\nc"},
		{"fragment", "Just text", "Just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalise(t, "/doc.html", tt.input).Text)
		})
	}
}

func TestNormalise_Title(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"title tag", "<title>My Document</title>", "/doc.html", "My Document"},
		{"collapsed spaces", "<title>   Spaced \n Title   </title>", "/doc.html", "Spaced Title"},
		{"entities", "<title>Tom &amp; Jerry</title>", "/doc.html", "Tom & Jerry"},
		{"missing", "<body>Just content</body>", "/my_document.html", "my document"},
		{"empty", "<title></title><body>Content</body>", "/readme.html", "readme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalise(t, tt.path, tt.content).Title)
		})
	}
}

func TestNormalise_TitleNotInText(t *testing.T) {
	result := normalise(t, "/doc.html", "<title>Heading</title><p>Body</p>")

	assert.Equal(t, "Body", result.Text)
}

func TestNormalise_Language(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"lang", `<html lang="fr-CA"><body>x</body></html>`, "fr-CA"},
		{"xml lang", `<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="nl"><body>x</body></html>`, "nl"},
		{"lang preferred", `<html xml:lang="nl" lang="de"><body>x</body></html>`, "de"},
		{"none", `<html><body>x</body></html>`, ""},
		{"nested element ignored", `<html><body><p lang="es">x</p></body></html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalise(t, "/doc.html", tt.content).Language)
		})
	}
}

func TestNormalise_EmptyContent(t *testing.T) {
	result := normalise(t, "/empty.html", "")

	assert.Empty(t, result.Text)
	assert.Equal(t, "empty", result.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}
