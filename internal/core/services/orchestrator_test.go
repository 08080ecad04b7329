package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

func fixedTerm(text string, start int) domain.AnalysisResult {
	return domain.NewAnalysisResult([]domain.Term{{
		Text: text, Start: start, End: start + len(text), Classification: domain.ClassValid, Score: 80,
	}}, domain.DefaultQualityWeights())
}

func TestOrchestrator_SingleCall(t *testing.T) {
	analyzer := newWordAnalyzer(map[string]domain.Classification{"cat": domain.ClassSpelling})
	orch := NewOrchestrator(analyzer, mockSplitter{size: 100})

	var progress []domain.Progress
	result, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: "The cat sat."}, func(p domain.Progress) {
		progress = append(progress, p)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls())
	require.Len(t, result.Terms, 1)
	assert.Equal(t, 4, result.Terms[0].Start)
	require.Len(t, progress, 1)
	assert.Equal(t, 0, progress[0].ChunkIndex)
	assert.Equal(t, 1, progress[0].TotalChunks)
	assert.InDelta(t, 100.0, progress[0].Percent, 1e-9)
	assert.NotEmpty(t, progress[0].RunID)
}

func TestOrchestrator_EmptyTextSkipsAnalyzer(t *testing.T) {
	analyzer := newWordAnalyzer(nil)
	orch := NewOrchestrator(analyzer, mockSplitter{size: 100})

	result, err := orch.Analyze(context.Background(), domain.AnalysisRequest{}, nil)

	require.NoError(t, err)
	assert.Empty(t, result.Terms)
	assert.Equal(t, 0, analyzer.calls())
}

func TestOrchestrator_RebasesChunkOffsets(t *testing.T) {
	analyzer := &mockAnalyzer{fn: func(_ int, _ domain.AnalysisRequest) (domain.AnalysisResult, error) {
		return fixedTerm("aaa", 50), nil
	}}
	orch := NewOrchestrator(analyzer, mockSplitter{size: 12000}, WithLimits(12000, 100000))

	var progress []domain.Progress
	result, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: strings.Repeat("a", 24000)}, func(p domain.Progress) {
		progress = append(progress, p)
	})

	require.NoError(t, err)
	assert.Equal(t, 2, analyzer.calls())
	require.Len(t, result.Terms, 2)
	assert.Equal(t, 50, result.Terms[0].Start)
	assert.Equal(t, 12050, result.Terms[1].Start)
	assert.Equal(t, 12053, result.Terms[1].End)
	assert.Equal(t, 2, result.Statistics.TotalTerms)

	require.Len(t, progress, 2)
	assert.InDelta(t, 50.0, progress[0].Percent, 1e-9)
	assert.InDelta(t, 100.0, progress[1].Percent, 1e-9)
	assert.Equal(t, progress[0].RunID, progress[1].RunID)
}

func TestOrchestrator_CancelAfterFirstChunk(t *testing.T) {
	analyzer := newWordAnalyzer(nil)
	orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithLimits(10, 1000))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progressCalls := 0
	_, err := orch.Analyze(ctx, domain.AnalysisRequest{Text: strings.Repeat("x", 30)}, func(domain.Progress) {
		progressCalls++
		cancel()
	})

	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 1, progressCalls)
	assert.Equal(t, 1, analyzer.calls())
}

func TestOrchestrator_CancelledBeforeStart(t *testing.T) {
	analyzer := newWordAnalyzer(nil)
	orch := NewOrchestrator(analyzer, mockSplitter{size: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Analyze(ctx, domain.AnalysisRequest{Text: "text"}, nil)

	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 0, analyzer.calls())
}

func TestOrchestrator_ChunkErrorNamesChunk(t *testing.T) {
	boom := errors.New("boom")
	analyzer := &mockAnalyzer{fn: func(call int, _ domain.AnalysisRequest) (domain.AnalysisResult, error) {
		if call == 1 {
			return domain.AnalysisResult{}, boom
		}
		return domain.AnalysisResult{}, nil
	}}
	metrics := newMockMetrics()
	orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithLimits(10, 1000), WithOrchestratorMetrics(metrics))

	_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: strings.Repeat("x", 30)}, nil)

	var chunkErr *domain.ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 1, chunkErr.Index)
	assert.Equal(t, 3, chunkErr.Total)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, analyzer.calls())
	assert.Equal(t, 1, metrics.calls["ok"])
	assert.Equal(t, 1, metrics.calls["error"])
}

func TestOrchestrator_TransientErrorKeepsKind(t *testing.T) {
	analyzer := &mockAnalyzer{fn: func(int, domain.AnalysisRequest) (domain.AnalysisResult, error) {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrAnalyzerTransient, domain.ErrRateLimited)
	}}
	metrics := newMockMetrics()
	orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithOrchestratorMetrics(metrics))

	_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: "short"}, nil)

	assert.True(t, domain.IsTransient(err))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, metrics.calls["transient"])
}

func TestOrchestrator_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		term domain.Term
	}{
		{"empty text", domain.Term{Start: 0, End: 3, Classification: domain.ClassValid}},
		{"unknown classification", domain.Term{Text: "cat", Start: 4, End: 7, Classification: "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &mockAnalyzer{fn: func(int, domain.AnalysisRequest) (domain.AnalysisResult, error) {
				return domain.AnalysisResult{Terms: []domain.Term{tt.term}}, nil
			}}
			orch := NewOrchestrator(analyzer, mockSplitter{size: 100})

			_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: "The cat sat."}, nil)

			var chunkErr *domain.ChunkError
			require.ErrorAs(t, err, &chunkErr)
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestOrchestrator_RelocatesMisplacedTerms(t *testing.T) {
	analyzer := &mockAnalyzer{fn: func(int, domain.AnalysisRequest) (domain.AnalysisResult, error) {
		return domain.AnalysisResult{Terms: []domain.Term{
			{Text: "cat", Start: 0, End: 3, Classification: domain.ClassValid},
			{Text: "dog", Start: 8, End: 11, Classification: domain.ClassCritical},
		}}, nil
	}}
	orch := NewOrchestrator(analyzer, mockSplitter{size: 100})

	result, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: "The cat sat."}, nil)

	require.NoError(t, err)
	require.Len(t, result.Terms, 1)
	assert.Equal(t, "cat", result.Terms[0].Text)
	assert.Equal(t, 4, result.Terms[0].Start)
	assert.Equal(t, 1, result.Statistics.TotalTerms)
	assert.Equal(t, 0, result.Statistics.CriticalTerms)
}

func TestOrchestrator_InputTooLarge(t *testing.T) {
	analyzer := newWordAnalyzer(nil)

	t.Run("above ceiling", func(t *testing.T) {
		orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithLimits(10, 20))
		_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: strings.Repeat("x", 21)}, nil)
		assert.ErrorIs(t, err, domain.ErrInputTooLarge)
	})

	t.Run("no single call limit", func(t *testing.T) {
		orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithLimits(0, 20))
		_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: "x"}, nil)
		assert.ErrorIs(t, err, domain.ErrInputTooLarge)
	})

	t.Run("splitter exceeds limit", func(t *testing.T) {
		orch := NewOrchestrator(analyzer, mockSplitter{size: 15}, WithLimits(10, 100))
		_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: strings.Repeat("x", 30)}, nil)
		assert.ErrorIs(t, err, domain.ErrInputTooLarge)
	})

	assert.Equal(t, 0, analyzer.calls())
}

func TestOrchestrator_ConcurrentRunKeepsOrder(t *testing.T) {
	analyzer := &mockAnalyzer{fn: func(call int, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
		// Early chunks finish last.
		time.Sleep(time.Duration(8-call) * time.Millisecond)
		return fixedTerm(req.Text[:1], 0), nil
	}}
	orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithLimits(10, 1000), WithConcurrency(4))

	var mu sync.Mutex
	var indices []int
	result, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: strings.Repeat("abcdefghij", 8)}, func(p domain.Progress) {
		mu.Lock()
		indices = append(indices, p.ChunkIndex)
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, indices)
	require.Len(t, result.Terms, 8)
	for i, term := range result.Terms {
		assert.Equal(t, i*10, term.Start)
		assert.Equal(t, "a", term.Text)
	}
}

func TestOrchestrator_ConcurrentRunReportsFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	analyzer := &mockAnalyzer{fn: func(_ int, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
		if strings.HasPrefix(req.Text, "c") {
			return domain.AnalysisResult{}, boom
		}
		return domain.AnalysisResult{}, nil
	}}
	orch := NewOrchestrator(analyzer, mockSplitter{size: 5}, WithLimits(5, 1000), WithConcurrency(3))
	text := strings.Repeat("a", 5) + strings.Repeat("b", 5) + strings.Repeat("c", 5) + strings.Repeat("d", 5)

	_, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: text}, nil)

	var chunkErr *domain.ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 2, chunkErr.Index)
	assert.ErrorIs(t, err, boom)
}

func TestOrchestrator_RateLimitedRunCompletes(t *testing.T) {
	analyzer := newWordAnalyzer(map[string]domain.Classification{"x": domain.ClassValid})
	orch := NewOrchestrator(analyzer, mockSplitter{size: 10}, WithLimits(10, 100), WithRateLimit(1000))

	result, err := orch.Analyze(context.Background(), domain.AnalysisRequest{Text: strings.Repeat("x", 25)}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, analyzer.calls())
	assert.Len(t, result.Terms, 25)
}
