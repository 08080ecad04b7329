package driven

import (
	"time"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// MetricsRecorder receives engine measurements.
// This is optional - services skip recording when it is nil.
type MetricsRecorder interface {
	// RecordDecision counts a completed re-analysis and its duration.
	RecordDecision(path domain.Path, d time.Duration)

	// RecordCacheLookup counts a cache lookup.
	RecordCacheLookup(hit bool)

	// RecordChunkCall counts one analyzer call by outcome
	// ("ok", "transient", "malformed", "cancelled", "error").
	RecordChunkCall(outcome string)

	// RecordFallback counts a partial pass retried as a full pass.
	RecordFallback()
}
