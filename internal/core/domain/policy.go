package domain

import "time"

// State is a re-analysis state machine state.
type State string

// Re-analysis states.
const (
	StateIdle           State = "idle"
	StateCheckingCache  State = "checking_cache"
	StateCacheHit       State = "cache_hit"
	StateDiffing        State = "diffing"
	StatePartialPending State = "partial_pending"
	StateFullPending    State = "full_pending"
	StateAnalyzing      State = "analyzing"
	StateMerge          State = "merge"
	StateDone           State = "done"
	StateCancelled      State = "cancelled"
	StateError          State = "error"
)

// IsTerminal reports whether a run ends in this state.
func (s State) IsTerminal() bool {
	switch s {
	case StateCacheHit, StateDone, StateCancelled, StateError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s State) String() string {
	return string(s)
}

// Path is the route a re-analysis took.
type Path string

// Re-analysis paths.
const (
	PathCacheHit Path = "cache_hit"
	PathPartial  Path = "partial"
	PathFull     Path = "full"
)

// String returns the string representation.
func (p Path) String() string {
	return string(p)
}

// Transition records one state change.
type Transition struct {
	// From is the previous state.
	From State

	// To is the new state.
	To State

	// Reason is a short machine-friendly explanation.
	Reason string

	// At is when the transition happened.
	At time.Time
}

// Outcome is the result of one re-analysis.
type Outcome struct {
	// Path is the route taken.
	Path Path

	// Result is the analysis for the edit's snapshot.
	Result AnalysisResult

	// Key is the cache fingerprint of the snapshot.
	Key Fingerprint

	// Profile is the change profile, nil on cache hits and first analyses.
	Profile *ChangeProfile

	// FellBack is true when a partial pass was retried as a full pass.
	FellBack bool

	// Duration is the wall time of the re-analysis.
	Duration time.Duration
}
