package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// --- Mock implementations ---

// mockAnalyzer implements driven.Analyzer for testing.
// Without fn it classifies every occurrence of the configured words.
type mockAnalyzer struct {
	mu    sync.Mutex
	words map[string]domain.Classification
	texts []string
	fn    func(call int, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

func newWordAnalyzer(words map[string]domain.Classification) *mockAnalyzer {
	return &mockAnalyzer{words: words}
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	m.mu.Lock()
	call := len(m.texts)
	m.texts = append(m.texts, req.Text)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, err
	}
	if m.fn != nil {
		return m.fn(call, req)
	}
	return findWords(req.Text, m.words), nil
}

func (m *mockAnalyzer) Name() string {
	return "mock"
}

func (m *mockAnalyzer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

func (m *mockAnalyzer) text(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts[i]
}

// findWords returns a result with one term per occurrence of each word.
func findWords(text string, words map[string]domain.Classification) domain.AnalysisResult {
	keys := make([]string, 0, len(words))
	for w := range words {
		keys = append(keys, w)
	}
	sort.Strings(keys)

	terms := []domain.Term{}
	for _, w := range keys {
		from := 0
		for {
			i := strings.Index(text[from:], w)
			if i < 0 {
				break
			}
			start := utf8.RuneCountInString(text[:from+i])
			terms = append(terms, domain.Term{
				Text:           w,
				Start:          start,
				End:            start + utf8.RuneCountInString(w),
				Classification: words[w],
				Score:          90,
			})
			from += i + len(w)
		}
	}
	return domain.NewAnalysisResult(terms, domain.DefaultQualityWeights())
}

// mockSplitter implements driven.Splitter with fixed-size rune chunks.
type mockSplitter struct {
	size int
}

func (m mockSplitter) Name() string {
	return "mock"
}

func (m mockSplitter) Split(content string) []domain.ChunkJob {
	runes := []rune(content)
	var jobs []domain.ChunkJob
	for start := 0; start < len(runes); start += m.size {
		end := min(start+m.size, len(runes))
		jobs = append(jobs, domain.ChunkJob{
			Index:      len(jobs),
			Content:    string(runes[start:end]),
			OffsetBase: start,
			Status:     domain.ChunkPending,
		})
	}
	for i := range jobs {
		jobs[i].TotalChunks = len(jobs)
	}
	return jobs
}

// mockResultStore implements driven.ResultStore and fails every call.
type mockResultStore struct {
	err   error
	saves int
}

func (m *mockResultStore) Get(_ context.Context, _ domain.Fingerprint) (*domain.CacheEntry, error) {
	return nil, m.err
}

func (m *mockResultStore) Save(_ context.Context, _ domain.CacheEntry) error {
	m.saves++
	return m.err
}

func (m *mockResultStore) Clear(_ context.Context) error {
	return m.err
}

func (m *mockResultStore) Close() error {
	return nil
}

var errStoreDown = errors.New("store down")

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	mu        sync.Mutex
	decisions []domain.Path
	hits      int
	misses    int
	calls     map[string]int
	fallbacks int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{calls: make(map[string]int)}
}

func (m *mockMetrics) RecordDecision(path domain.Path, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, path)
}

func (m *mockMetrics) RecordCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *mockMetrics) RecordChunkCall(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[outcome]++
}

func (m *mockMetrics) RecordFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}
