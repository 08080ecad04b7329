// Package services implements the incremental re-analysis engine.
//
// The engine is assembled from small parts, leaves first:
//
//   - AnalysisCache: fingerprint-keyed results, optionally backed by a ResultStore
//   - ResultMerger: folds a partial pass into the prior result
//   - Orchestrator: chunked analyzer dispatch with progress and cancellation
//   - ReanalysisPolicy: per-document state machine choosing cache hit, partial or full
//   - SessionManager: one policy and cache per document
//
// Services depend only on domain types and driven ports, never on adapters.
package services
