// Package domain holds the entities shared by every layer of lexiq.
//
//   - Snapshot: an immutable document revision produced by an edit
//   - Term: a flagged span with its classification and score
//   - AnalysisResult: the terms of a revision plus aggregate Statistics
//   - ChangeProfile: the segments that differ between two snapshots
//   - ChunkJob: a bounded slice of a document sent to the analyzer
//
// Offsets are rune indices into the content of the snapshot that produced
// them, half-open as [Start, End).
//
// The package imports the standard library only; everything else depends
// on it.
package domain
