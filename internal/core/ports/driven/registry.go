package driven

import (
	"context"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// NormaliserRegistry turns files into analysable text. The MIME type is
// taken from the document or detected from its path; when several
// normalisers accept a type the highest priority one wins.
type NormaliserRegistry interface {
	// Normalise returns domain.ErrUnsupportedType when no registered
	// normaliser accepts the document and it is not plain UTF-8 text.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)

	// SupportedMIMETypes lists every registered type, sorted.
	SupportedMIMETypes() []string
}
