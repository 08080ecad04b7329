package domain

// ChunkStatus is the orchestrator-owned state of a chunk job.
type ChunkStatus string

// Chunk job states.
const (
	ChunkPending   ChunkStatus = "pending"
	ChunkRunning   ChunkStatus = "running"
	ChunkDone      ChunkStatus = "done"
	ChunkFailed    ChunkStatus = "error"
	ChunkCancelled ChunkStatus = "cancelled"
)

// IsTerminal reports whether the job will not change state again.
func (s ChunkStatus) IsTerminal() bool {
	return s == ChunkDone || s == ChunkFailed || s == ChunkCancelled
}

// ChunkJob is a bounded slice of a document sent to the analyzer in one call.
type ChunkJob struct {
	// Index is the zero-based position of the chunk.
	Index int

	// TotalChunks is the number of chunks in the run.
	TotalChunks int

	// Content is the chunk text.
	Content string

	// OffsetBase is the rune offset of the chunk in the full document.
	OffsetBase int

	// Status is the job state.
	Status ChunkStatus

	// ProgressPercent is the run progress once this job is done.
	ProgressPercent float64
}

// Progress is reported after each chunk completes, in index order.
type Progress struct {
	// RunID identifies the orchestrator run.
	RunID string

	// ChunkIndex is the zero-based index of the completed chunk.
	ChunkIndex int

	// TotalChunks is the number of chunks in the run.
	TotalChunks int

	// Percent is the share of chunks done.
	Percent float64
}

// ProgressFunc receives progress reports.
type ProgressFunc func(Progress)
