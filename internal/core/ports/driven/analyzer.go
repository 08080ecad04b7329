package driven

import (
	"context"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// Analyzer is the external text-analysis service.
// It classifies terms in a text against a glossary. The engine treats it
// as opaque and never inspects how a verdict was reached.
//
// Implementations must:
//   - Return term offsets as rune indices into req.Text
//   - Wrap timeouts, rate limits and 5xx responses in domain.ErrAnalyzerTransient
//   - Wrap undecodable or incomplete responses in domain.ErrMalformedResponse
//   - Never return an empty result in place of an error
type Analyzer interface {
	// Analyze classifies the terms of req.Text.
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)

	// Name identifies the backend in logs.
	Name() string
}
