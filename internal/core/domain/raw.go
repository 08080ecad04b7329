package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument is a document file before text extraction.
type RawDocument struct {
	// Path is where the document was read from.
	Path string

	// MIMEType is the content type (e.g., "text/markdown").
	// Empty means detect from Path.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Name returns a readable name derived from the file name, used as the
// title of documents that do not declare one.
func (r RawDocument) Name() string {
	base := filepath.Base(r.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}
