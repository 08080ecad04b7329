package driven

import (
	"context"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// ResultStore persists analysis cache entries beyond the process.
// It sits behind the in-memory cache: reads fall through to it on a miss
// and writes go to both. Store failures never fail an analysis.
type ResultStore interface {
	// Get retrieves an entry. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, key domain.Fingerprint) (*domain.CacheEntry, error)

	// Save stores an entry, overwriting any entry with the same key.
	Save(ctx context.Context, entry domain.CacheEntry) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}
