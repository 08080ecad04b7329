// Package chunker splits oversized documents into ordered analyzer chunks.
package chunker

import (
	"unicode"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 12000

// Processor splits document content into non-overlapping chunks of at most
// chunkSize runes, cutting at paragraph, sentence or word boundaries when one
// falls in the back half of the window.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Split cuts content into ordered chunk jobs.
// Content that fits one chunk produces a single job; empty content produces none.
func (p *Processor) Split(content string) []domain.ChunkJob {
	if content == "" {
		return nil
	}

	runes := []rune(content)
	contentLen := len(runes)

	estimatedChunks := contentLen/p.chunkSize + 1
	jobs := make([]domain.ChunkJob, 0, estimatedChunks)

	start := 0
	for start < contentLen {
		end := start + p.chunkSize
		if end < contentLen {
			end = p.boundary(runes, start, end)
		} else {
			end = contentLen
		}

		jobs = append(jobs, domain.ChunkJob{
			Index:      len(jobs),
			Content:    string(runes[start:end]),
			OffsetBase: start,
			Status:     domain.ChunkPending,
		})
		start = end
	}

	for i := range jobs {
		jobs[i].TotalChunks = len(jobs)
	}
	return jobs
}

// boundary returns the best cut in (start+chunkSize/2, end], preferring a
// paragraph break, then a sentence end, then whitespace. Whitespace stays
// with the chunk before the cut. Without any boundary it cuts at end.
func (p *Processor) boundary(r []rune, start, end int) int {
	floor := start + p.chunkSize/2
	sentence, space := -1, -1

	for i := end; i > floor; i-- {
		prev := r[i-1]
		if !unicode.IsSpace(prev) {
			continue
		}
		if i < len(r) && unicode.IsSpace(r[i]) {
			// Cut after the whole whitespace run.
			continue
		}
		if prev == '\n' && i >= 2 && r[i-2] == '\n' {
			return i
		}
		if sentence < 0 && endsSentence(r, i-1, floor) {
			sentence = i
		}
		if space < 0 {
			space = i
		}
	}

	switch {
	case sentence > 0:
		return sentence
	case space > 0:
		return space
	default:
		return end
	}
}

// endsSentence reports whether the whitespace run ending at i follows a
// sentence terminator.
func endsSentence(r []rune, i, floor int) bool {
	for i > floor && unicode.IsSpace(r[i]) {
		i--
	}
	switch r[i] {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	default:
		return false
	}
}
