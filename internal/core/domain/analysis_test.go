package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatistics_Empty(t *testing.T) {
	assert.Equal(t, Statistics{}, ComputeStatistics(nil, DefaultQualityWeights()))
}

func TestComputeStatistics(t *testing.T) {
	terms := []Term{
		{Text: "a", Classification: ClassValid, Score: 90},
		{Text: "b", Classification: ClassValid, Score: 80},
		{Text: "c", Classification: ClassReview, Score: 60},
		{Text: "d", Classification: ClassCritical, Score: 95},
		{Text: "e", Classification: ClassSpelling, Score: 40},
	}

	s := ComputeStatistics(terms, DefaultQualityWeights())

	assert.Equal(t, 5, s.TotalTerms)
	assert.Equal(t, 2, s.ValidTerms)
	assert.Equal(t, 1, s.ReviewTerms)
	assert.Equal(t, 1, s.CriticalTerms)
	assert.Equal(t, 1, s.SpellingIssues)
	assert.Equal(t, 0, s.GrammarIssues)
	// (2*1.0 + 0.6 + 0 + 0.3) / 5
	assert.InDelta(t, 58.0, s.QualityScore, 1e-9)
	assert.InDelta(t, 40.0, s.Coverage, 1e-9)
	assert.InDelta(t, 40.0, s.ConfidenceMin, 0)
	assert.InDelta(t, 95.0, s.ConfidenceMax, 0)
	assert.Equal(t, 1, s.Count(ClassCritical))
}

func TestComputeStatistics_CustomWeights(t *testing.T) {
	terms := []Term{
		{Classification: ClassReview},
		{Classification: ClassCritical},
	}
	w := QualityWeights{Review: 1, Critical: 0.5}

	assert.InDelta(t, 75.0, ComputeStatistics(terms, w).QualityScore, 1e-9)
}

func TestAnalysisResult_CloneIsDeep(t *testing.T) {
	r := NewAnalysisResult([]Term{
		{Text: "x", Start: 3, End: 4, Classification: ClassValid, Suggestions: []string{"y"}},
	}, DefaultQualityWeights())

	c := r.Clone()
	assert.True(t, r.Equal(c))

	c.Terms[0].Suggestions[0] = "z"
	c.Terms[0].Start = 0
	assert.Equal(t, "y", r.Terms[0].Suggestions[0])
	assert.Equal(t, 3, r.Terms[0].Start)
	assert.False(t, r.Equal(c))
}

func TestAnalysisResult_TermsIn(t *testing.T) {
	r := NewAnalysisResult([]Term{
		{Start: 20, End: 25, Classification: ClassValid},
		{Start: 0, End: 5, Classification: ClassValid},
	}, DefaultQualityWeights())

	assert.Equal(t, 0, r.Terms[0].Start, "terms are sorted")
	assert.Len(t, r.TermsIn(18, 30), 1)
	assert.Empty(t, r.TermsIn(6, 19))
}
