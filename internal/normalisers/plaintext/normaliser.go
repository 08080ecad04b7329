// Package plaintext provides the fallback Normaliser for text documents.
// The text is passed through unchanged so term offsets match the file.
package plaintext

import (
	"context"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// mimeTypes are text formats analysed as-is.
var mimeTypes = []string{
	"text/plain",
	"text/csv",
	"text/tab-separated-values",
	"text/yaml",
	"text/toml",
	"application/json",
	"application/xml",
	"application/x-subrip",
	"application/x-gettext",
	"application/x-xliff+xml",
}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return append([]string(nil), mimeTypes...)
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the document bytes as text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	return &driven.NormaliseResult{
		Title:  raw.Name(),
		Text:   string(raw.Content),
		Format: "plaintext",
	}, nil
}
