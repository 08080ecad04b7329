package driven

import (
	"context"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// Normaliser extracts the analysable text of a document format.
// Each normaliser handles specific MIME types (e.g., HTML, DOCX).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the text of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Title is the document title, or a name derived from its path.
	Title string

	// Text is the content the analyzer sees. Term offsets refer to it.
	Text string

	// Format names the normaliser that produced the text.
	Format string

	// Language is the language the document declares, such as "de-DE".
	// Empty when the format carries none.
	Language string
}
