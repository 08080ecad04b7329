package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

func newTestServer(t *testing.T, sessions *mockSessionService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{
		Sessions: sessions,
		Defaults: domain.AnalysisSettings{
			Language: "en",
			Domain:   "general",
			Flags:    domain.CheckFlags{Spelling: true},
		},
	})
	require.NoError(t, err)
	return server
}

func TestServer_handleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a new document when no ID is given", func(t *testing.T) {
		sessions := newMockSessionService()
		server := newTestServer(t, sessions)

		_, output, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Text: "hello"})

		require.NoError(t, err)
		assert.Equal(t, "generated-id", output.DocumentID)
		assert.Equal(t, "full", output.Path)
		assert.NotNil(t, output.Terms)
		assert.Empty(t, output.Terms)
		assert.Equal(t, []string{"generated-id"}, sessions.IDs())
	})

	t.Run("maps the outcome", func(t *testing.T) {
		terms := []domain.Term{
			{Text: "colour", Start: 0, End: 6, Classification: domain.ClassSpelling, Score: 0.4},
		}
		sessions := newMockSessionService()
		sessions.add("doc-1", &mockReanalysisService{
			outcome: &domain.Outcome{
				Path:     domain.PathPartial,
				Result:   domain.NewAnalysisResult(terms, domain.DefaultQualityWeights()),
				FellBack: true,
				Profile: &domain.ChangeProfile{
					PercentChanged:  4.5,
					ChangedSegments: []domain.Segment{{Start: 0, End: 6}},
				},
				Duration: 1500 * time.Millisecond,
			},
		})
		server := newTestServer(t, sessions)

		_, output, err := server.handleAnalyze(ctx, nil, AnalyzeInput{DocumentID: "doc-1", Text: "colour"})

		require.NoError(t, err)
		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Equal(t, "partial", output.Path)
		assert.True(t, output.FellBack)
		assert.InDelta(t, 4.5, output.PercentChanged, 1e-9)
		assert.Equal(t, 1, output.ChangedSegments)
		assert.Equal(t, terms, output.Terms)
		assert.Equal(t, 1, output.Statistics.SpellingIssues)
		assert.Equal(t, int64(1500), output.DurationMS)
	})

	t.Run("fills unset parameters from defaults", func(t *testing.T) {
		svc := &mockReanalysisService{}
		sessions := newMockSessionService()
		sessions.add("doc-1", svc)
		server := newTestServer(t, sessions)

		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{DocumentID: "doc-1", Text: "abc", Glossary: "g"})
		require.NoError(t, err)

		require.Len(t, svc.edits, 1)
		edit := svc.edits[0]
		assert.Equal(t, "abc", edit.Snapshot.Content)
		assert.Equal(t, "g", edit.Glossary)
		assert.Equal(t, "en", edit.Language)
		assert.Equal(t, "general", edit.Domain)
		assert.Equal(t, domain.CheckFlags{Spelling: true}, edit.Flags)
	})

	t.Run("explicit parameters override defaults", func(t *testing.T) {
		svc := &mockReanalysisService{}
		sessions := newMockSessionService()
		sessions.add("doc-1", svc)
		server := newTestServer(t, sessions)

		yes, no := true, false
		input := AnalyzeInput{
			DocumentID:    "doc-1",
			Text:          "abc",
			Language:      "de",
			Domain:        "medical",
			CheckGrammar:  &yes,
			CheckSpelling: &no,
		}
		_, _, err := server.handleAnalyze(ctx, nil, input)
		require.NoError(t, err)

		edit := svc.edits[0]
		assert.Equal(t, "de", edit.Language)
		assert.Equal(t, "medical", edit.Domain)
		assert.Equal(t, domain.CheckFlags{Grammar: true}, edit.Flags)
	})

	t.Run("propagates errors", func(t *testing.T) {
		sessions := newMockSessionService()
		sessions.add("doc-1", &mockReanalysisService{err: domain.ErrAnalyzerTransient})
		server := newTestServer(t, sessions)

		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{DocumentID: "doc-1", Text: "abc"})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrAnalyzerTransient))
		assert.Contains(t, err.Error(), "doc-1")
	})
}

func TestServer_handleClearCache(t *testing.T) {
	ctx := context.Background()

	t.Run("clears every open document", func(t *testing.T) {
		a, b := &mockReanalysisService{}, &mockReanalysisService{}
		sessions := newMockSessionService()
		sessions.add("a", a)
		sessions.add("b", b)
		server := newTestServer(t, sessions)

		_, output, err := server.handleClearCache(ctx, nil, DocumentInput{})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, output.Cleared)
		assert.Equal(t, 1, a.cleared)
		assert.Equal(t, 1, b.cleared)
	})

	t.Run("clears one document", func(t *testing.T) {
		a, b := &mockReanalysisService{}, &mockReanalysisService{}
		sessions := newMockSessionService()
		sessions.add("a", a)
		sessions.add("b", b)
		server := newTestServer(t, sessions)

		_, output, err := server.handleClearCache(ctx, nil, DocumentInput{DocumentID: "b"})

		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, output.Cleared)
		assert.Zero(t, a.cleared)
		assert.Equal(t, 1, b.cleared)
	})

	t.Run("unknown document", func(t *testing.T) {
		server := newTestServer(t, newMockSessionService())

		_, _, err := server.handleClearCache(ctx, nil, DocumentInput{DocumentID: "missing"})

		assert.ErrorIs(t, err, ErrUnknownDocument)
	})

	t.Run("no open documents", func(t *testing.T) {
		server := newTestServer(t, newMockSessionService())

		_, output, err := server.handleClearCache(ctx, nil, DocumentInput{})

		require.NoError(t, err)
		assert.Empty(t, output.Cleared)
	})
}

func TestServer_handleCloseDocument(t *testing.T) {
	ctx := context.Background()

	sessions := newMockSessionService()
	sessions.add("doc-1", &mockReanalysisService{})
	server := newTestServer(t, sessions)

	_, output, err := server.handleCloseDocument(ctx, nil, DocumentInput{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.True(t, output.Closed)
	assert.Empty(t, sessions.IDs())

	_, output, err = server.handleCloseDocument(ctx, nil, DocumentInput{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.False(t, output.Closed)

	_, _, err = server.handleCloseDocument(ctx, nil, DocumentInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
