package driving

import (
	"context"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// ReanalysisService decides, for every edit of a document, whether to serve a
// cached result, re-analyse only the changed segments, or analyse the whole
// document again.
//
// One instance serves one document. Callers serialise Reanalyze calls; the
// service assumes at most one in flight.
type ReanalysisService interface {
	// Reanalyze brings the analysis up to date with edit.
	// Cancelling ctx stops dispatching chunks and returns domain.ErrCancelled.
	// On error the previous result is left untouched.
	Reanalyze(ctx context.Context, edit domain.Edit, onProgress domain.ProgressFunc) (*domain.Outcome, error)

	// State returns the current state machine state.
	State() domain.State

	// LastSnapshot returns the last fully analysed snapshot, if any.
	LastSnapshot() (domain.Snapshot, bool)

	// CurrentResult returns the result attached to LastSnapshot, if any.
	CurrentResult() (domain.AnalysisResult, bool)

	// Subscribe registers fn for every state transition and returns a
	// function that removes it.
	Subscribe(fn func(domain.Transition)) (unsubscribe func())

	// Reset forgets the last snapshot and result and returns to idle.
	Reset()

	// ClearCache drops every cached analysis.
	ClearCache(ctx context.Context)
}

// SessionService hands out one ReanalysisService per document.
type SessionService interface {
	// Open returns the service for id, creating it on first use.
	// An empty id opens a new document under a generated ID, which is returned.
	Open(id string) (string, ReanalysisService)

	// Find returns the service for an open document.
	Find(id string) (ReanalysisService, bool)

	// Remove closes a document. It reports whether it was open.
	Remove(id string) bool

	// IDs returns the open document IDs in sorted order.
	IDs() []string
}
