package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/textdiff"
)

func termAt(doc, text string, class domain.Classification) domain.Term {
	start := strings.Index(doc, text)
	return domain.Term{Text: text, Start: start, End: start + len(text), Classification: class, Score: 90}
}

func TestResultMerger_DropsTermsInChangedSegment(t *testing.T) {
	prev := "Hello" + strings.Repeat(" ", 15) + "World" + strings.Repeat(" ", 10) + "after"
	cur := prev[:18] + strings.Repeat("X", 15) + prev[30:]
	profile := domain.ChangeProfile{
		Previous: prev,
		Current:  cur,
		ChangedSegments: []domain.Segment{{
			Start: 18, End: 33, Content: cur[18:33], Changed: true,
			PrevStart: 18, PrevEnd: 30,
		}},
	}
	prior := domain.NewAnalysisResult([]domain.Term{
		{Text: "Hello", Start: 0, End: 5, Classification: domain.ClassValid},
		{Text: "World", Start: 20, End: 25, Classification: domain.ClassCritical},
		{Text: "after", Start: 35, End: 40, Classification: domain.ClassReview},
	}, domain.DefaultQualityWeights())

	merged, err := NewResultMerger(domain.DefaultQualityWeights()).Merge(prior, nil, profile)

	require.NoError(t, err)
	require.Len(t, merged.Terms, 2)
	assert.Equal(t, "Hello", merged.Terms[0].Text)
	assert.Equal(t, 0, merged.Terms[0].Start)
	assert.Equal(t, "after", merged.Terms[1].Text)
	assert.Equal(t, 38, merged.Terms[1].Start)
	assert.Equal(t, 43, merged.Terms[1].End)
	assert.Equal(t, 2, merged.Statistics.TotalTerms)
	assert.Equal(t, 0, merged.Statistics.CriticalTerms)
}

func TestResultMerger_AddsPartialTerms(t *testing.T) {
	prev := "Alpha one. Beta two. Gamma three."
	cur := "Alpha one. Beta twenty-two. Gamma three."
	profile := textdiff.Diff(prev, cur)
	require.Len(t, profile.ChangedSegments, 1)

	prior := domain.NewAnalysisResult([]domain.Term{
		termAt(prev, "Alpha", domain.ClassValid),
		termAt(prev, "two", domain.ClassSpelling),
		termAt(prev, "Gamma", domain.ClassValid),
	}, domain.DefaultQualityWeights())
	partial := []domain.Term{termAt(cur, "twenty-two", domain.ClassReview)}

	merged, err := NewResultMerger(domain.DefaultQualityWeights()).Merge(prior, partial, profile)

	require.NoError(t, err)
	texts := make([]string, len(merged.Terms))
	for i, term := range merged.Terms {
		texts[i] = term.Text
		assert.Equal(t, term.Text, cur[term.Start:term.End])
	}
	assert.Equal(t, []string{"Alpha", "twenty-two", "Gamma"}, texts)
	assert.Equal(t, 0, merged.Statistics.SpellingIssues)
	assert.Equal(t, 1, merged.Statistics.ReviewTerms)
}

func TestResultMerger_DedupesIdenticalSpans(t *testing.T) {
	prev := "Alpha one. Beta two. Gamma three."
	cur := "Alpha one. Beta twenty-two. Gamma three."
	profile := textdiff.Diff(prev, cur)

	prior := domain.NewAnalysisResult([]domain.Term{
		termAt(prev, "Alpha", domain.ClassValid),
		termAt(prev, "Gamma", domain.ClassValid),
	}, domain.DefaultQualityWeights())
	fresh := termAt(cur, "Gamma", domain.ClassValid)
	fresh.Score = 60
	partial := []domain.Term{
		termAt(cur, "twenty-two", domain.ClassReview),
		fresh,
		termAt(cur, "Gamma", domain.ClassSpelling),
	}

	merged, err := NewResultMerger(domain.DefaultQualityWeights()).Merge(prior, partial, profile)

	require.NoError(t, err)
	require.Len(t, merged.Terms, 4)
	var gammas []domain.Term
	for _, term := range merged.Terms {
		if term.Text == "Gamma" {
			gammas = append(gammas, term)
		}
	}
	require.Len(t, gammas, 2)
	for _, g := range gammas {
		if g.Classification == domain.ClassValid {
			assert.Equal(t, 60.0, g.Score)
		}
	}
	assert.Equal(t, 4, merged.Statistics.TotalTerms)
	assert.Equal(t, 2, merged.Statistics.ValidTerms)
	assert.Equal(t, 1, merged.Statistics.SpellingIssues)
}

func TestResultMerger_DoesNotModifyPrior(t *testing.T) {
	prev := "Alpha one. Beta two."
	cur := "Zero. Alpha one. Beta two."
	profile := textdiff.Diff(prev, cur)
	prior := domain.NewAnalysisResult([]domain.Term{termAt(prev, "Beta", domain.ClassValid)}, domain.DefaultQualityWeights())
	before := prior.Clone()

	merged, err := NewResultMerger(domain.DefaultQualityWeights()).Merge(prior, nil, profile)

	require.NoError(t, err)
	require.Len(t, merged.Terms, 1)
	assert.Equal(t, strings.Index(cur, "Beta"), merged.Terms[0].Start)
	assert.True(t, before.Equal(prior))
}

func TestResultMerger_StaleTarget(t *testing.T) {
	profile := textdiff.Diff("Alpha one.", "Alpha two.")
	merger := NewResultMerger(domain.DefaultQualityWeights())

	tests := []struct {
		name string
		term domain.Term
	}{
		{"text mismatch", domain.Term{Text: "Omega", Start: 0, End: 5, Classification: domain.ClassValid}},
		{"out of bounds", domain.Term{Text: "Alpha", Start: 20, End: 25, Classification: domain.ClassValid}},
		{"negative", domain.Term{Text: "Alpha", Start: -1, End: 4, Classification: domain.ClassValid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := domain.AnalysisResult{Terms: []domain.Term{tt.term}}
			_, err := merger.Merge(prior, nil, profile)
			assert.ErrorIs(t, err, domain.ErrStaleMergeTarget)
		})
	}
}

func TestResultMerger_SkipsPartialTermsOutsideDocument(t *testing.T) {
	profile := textdiff.Diff("Alpha one.", "Alpha two.")
	partial := []domain.Term{{Text: "ghost", Start: 40, End: 45, Classification: domain.ClassReview}}

	merged, err := NewResultMerger(domain.DefaultQualityWeights()).Merge(domain.AnalysisResult{}, partial, profile)

	require.NoError(t, err)
	assert.Empty(t, merged.Terms)
}

func TestRelocate(t *testing.T) {
	content := []rune("ab ab ab")

	tests := []struct {
		name   string
		text   string
		hint   int
		want   int
		wantOK bool
	}{
		{"exact hint", "ab", 3, 3, true},
		{"nearest after", "ab", 4, 3, true},
		{"nearest before", "ab", 7, 6, true},
		{"negative hint", "ab", -5, 0, true},
		{"missing", "cd", 0, 0, false},
		{"empty", "", 0, 0, false},
		{"too long", "ab ab ab ab", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := relocate(content, tt.text, tt.hint)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
