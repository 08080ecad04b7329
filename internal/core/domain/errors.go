package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrAnalyzerUnavailable indicates no analyzer backend could be built.
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")

	// Analysis Errors.

	// ErrInputTooLarge indicates the document exceeds the absolute ceiling,
	// or the chunking limits are misconfigured so splitting cannot be applied.
	// Never retried automatically.
	ErrInputTooLarge = errors.New("input too large")

	// ErrAnalyzerTransient indicates a timeout, rate limit or 5xx from the analyzer.
	ErrAnalyzerTransient = errors.New("analyzer transient failure")

	// ErrRateLimited indicates the analyzer rejected the call with a rate limit.
	// It is always reported together with ErrAnalyzerTransient.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates the analyzer response is missing required
	// fields or cannot be decoded. Such responses are never partially trusted.
	ErrMalformedResponse = errors.New("malformed analyzer response")

	// ErrCancelled indicates the analysis was cancelled before completion.
	// Cancelled runs produce no result and write nothing to the cache.
	ErrCancelled = errors.New("analysis cancelled")

	// ErrStaleMergeTarget indicates a merge was attempted against a prior
	// result whose snapshot does not match the change profile's base.
	// This is a programming error, not a user-facing condition.
	ErrStaleMergeTarget = errors.New("stale merge target")
)

// ChunkError reports an analyzer failure for one chunk of a run.
type ChunkError struct {
	// Index is the zero-based index of the failing chunk.
	Index int

	// Total is the number of chunks in the run.
	Total int

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d/%d: %v", e.Index+1, e.Total, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ChunkError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable analyzer failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrAnalyzerTransient)
}

// IsCancelled reports whether err represents a cancelled run.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
