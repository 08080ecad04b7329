package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// buildDOCX zips the given parts into a minimal DOCX archive.
func buildDOCX(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// body wraps paragraphs in a word/document.xml envelope.
func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + paragraphs + `</w:body>
</w:document>`
}

func core(title, language string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>` + title + `</dc:title>
<dc:language>` + language + `</dc:language>
</cp:coreProperties>`
}

func normalise(t *testing.T, path string, parts map[string]string) *driven.NormaliseResult {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Path:     path,
		MIMEType: mimeType,
		Content:  buildDOCX(t, parts),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{mimeType}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_WithCoreProperties(t *testing.T) {
	result := normalise(t, "/docs/manual.docx", map[string]string{
		documentPart: body(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`),
		corePart:     core("Benutzerhandbuch", "de-DE"),
	})

	assert.Equal(t, "Benutzerhandbuch", result.Title)
	assert.Equal(t, "Hello World", result.Text)
	assert.Equal(t, "docx", result.Format)
	assert.Equal(t, "de-DE", result.Language)
}

func TestNormalise_Text(t *testing.T) {
	tests := []struct {
		name     string
		xml      string
		expected string
	}{
		{
			name:     "paragraphs",
			xml:      `<w:p><w:r><w:t>First</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t></w:r></w:p>`,
			expected: "First\nSecond",
		},
		{
			name:     "runs join",
			xml:      "<w:p>\n<w:r><w:t xml:space=\"preserve\">Hello </w:t></w:r>\n<w:r><w:t>World</w:t></w:r>\n</w:p>",
			expected: "Hello World",
		},
		{
			name:     "tab and break",
			xml:      `<w:p><w:r><w:t>Term</w:t><w:tab/><w:t>Definition</w:t><w:br/><w:t>More</w:t></w:r></w:p>`,
			expected: "Term\tDefinition\nMore",
		},
		{
			name:     "tab stops are not text",
			xml:      `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Text</w:t></w:r></w:p>`,
			expected: "Text",
		},
		{
			name:     "deleted revision skipped",
			xml:      `<w:p><w:del><w:r><w:delText>colour</w:delText></w:r></w:del><w:ins><w:r><w:t>color</w:t></w:r></w:ins></w:p>`,
			expected: "color",
		},
		{
			name:     "empty paragraph kept as blank line",
			xml:      `<w:p><w:r><w:t>One</w:t></w:r></w:p><w:p/><w:p><w:r><w:t>Two</w:t></w:r></w:p>`,
			expected: "One\n\nTwo",
		},
		{
			name:     "empty body",
			xml:      ``,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalise(t, "/doc.docx", map[string]string{documentPart: body(tt.xml)})
			assert.Equal(t, tt.expected, result.Text)
		})
	}
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	result := normalise(t, "/path/to/my_document.docx", map[string]string{
		documentPart: body(`<w:p><w:r><w:t>Content</w:t></w:r></w:p>`),
	})

	assert.Equal(t, "my document", result.Title)
	assert.Empty(t, result.Language)
}

func TestNormalise_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("not a zip file")},
		{"missing document part", buildDOCX(t, map[string]string{"[Content_Types].xml": "<Types/>"})},
		{"malformed document xml", buildDOCX(t, map[string]string{documentPart: "<w:document><w:body>"})},
		{"malformed core xml", buildDOCX(t, map[string]string{
			documentPart: body(""),
			corePart:     "<cp:coreProperties>",
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{
				Path:    "/bad.docx",
				Content: tt.content,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, result)
		})
	}
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}
