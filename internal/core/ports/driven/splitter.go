package driven

import "github.com/custodia-labs/lexiq/internal/core/domain"

// Splitter cuts a document into ordered analyzer chunks.
type Splitter interface {
	// Name returns the splitter name for logging.
	Name() string

	// Split returns non-overlapping chunk jobs that tile content in order.
	// Each job holds at most the splitter's chunk size in runes.
	Split(content string) []domain.ChunkJob
}
