package domain

import "slices"

// Statistics aggregates a term list.
type Statistics struct {
	// TotalTerms is the number of terms.
	TotalTerms int `json:"total_terms"`

	// ValidTerms counts terms classified valid.
	ValidTerms int `json:"valid_terms"`

	// ReviewTerms counts terms classified review.
	ReviewTerms int `json:"review_terms"`

	// CriticalTerms counts terms classified critical.
	CriticalTerms int `json:"critical_terms"`

	// SpellingIssues counts spelling findings.
	SpellingIssues int `json:"spelling_issues"`

	// GrammarIssues counts grammar findings.
	GrammarIssues int `json:"grammar_issues"`

	// QualityScore is the weighted quality in the range 0-100.
	QualityScore float64 `json:"quality_score"`

	// ConfidenceMin is the lowest term score.
	ConfidenceMin float64 `json:"confidence_min"`

	// ConfidenceMax is the highest term score.
	ConfidenceMax float64 `json:"confidence_max"`

	// Coverage is the share of valid terms in percent.
	Coverage float64 `json:"coverage"`
}

// Count returns the counter for a classification.
func (s Statistics) Count(c Classification) int {
	switch c {
	case ClassValid:
		return s.ValidTerms
	case ClassReview:
		return s.ReviewTerms
	case ClassCritical:
		return s.CriticalTerms
	case ClassSpelling:
		return s.SpellingIssues
	case ClassGrammar:
		return s.GrammarIssues
	default:
		return 0
	}
}

// QualityWeights are the per-classification weights of the quality score.
// The same weights are used for full, chunked and merged results so their
// scores stay comparable.
type QualityWeights struct {
	Valid    float64
	Review   float64
	Critical float64
	Spelling float64
	Grammar  float64
}

// DefaultQualityWeights returns the stock weights.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		Valid:    1.0,
		Review:   0.6,
		Critical: 0.0,
		Spelling: 0.3,
		Grammar:  0.3,
	}
}

// Weight returns the weight of a classification.
func (w QualityWeights) Weight(c Classification) float64 {
	switch c {
	case ClassValid:
		return w.Valid
	case ClassReview:
		return w.Review
	case ClassCritical:
		return w.Critical
	case ClassSpelling:
		return w.Spelling
	case ClassGrammar:
		return w.Grammar
	default:
		return 0
	}
}

// ComputeStatistics derives Statistics from a term list.
// An empty list yields the zero value.
func ComputeStatistics(terms []Term, weights QualityWeights) Statistics {
	var s Statistics
	if len(terms) == 0 {
		return s
	}

	var weighted float64
	s.ConfidenceMin = terms[0].Score
	s.ConfidenceMax = terms[0].Score
	for _, t := range terms {
		s.TotalTerms++
		switch t.Classification {
		case ClassValid:
			s.ValidTerms++
		case ClassReview:
			s.ReviewTerms++
		case ClassCritical:
			s.CriticalTerms++
		case ClassSpelling:
			s.SpellingIssues++
		case ClassGrammar:
			s.GrammarIssues++
		}
		weighted += weights.Weight(t.Classification)
		s.ConfidenceMin = min(s.ConfidenceMin, t.Score)
		s.ConfidenceMax = max(s.ConfidenceMax, t.Score)
	}

	total := float64(s.TotalTerms)
	s.QualityScore = 100 * weighted / total
	s.Coverage = 100 * float64(s.ValidTerms) / total
	return s
}

// AnalysisResult is the outcome of analysing one snapshot.
// Results are values: merges and offsets produce new results.
type AnalysisResult struct {
	// Terms are the flagged spans, ordered by offset.
	Terms []Term `json:"terms"`

	// Statistics aggregates Terms.
	Statistics Statistics `json:"statistics"`
}

// NewAnalysisResult builds a result whose statistics are computed from terms.
func NewAnalysisResult(terms []Term, weights QualityWeights) AnalysisResult {
	SortTerms(terms)
	return AnalysisResult{
		Terms:      terms,
		Statistics: ComputeStatistics(terms, weights),
	}
}

// Clone returns a deep copy of the result.
func (r AnalysisResult) Clone() AnalysisResult {
	c := AnalysisResult{Statistics: r.Statistics}
	if r.Terms != nil {
		c.Terms = make([]Term, len(r.Terms))
		for i, t := range r.Terms {
			c.Terms[i] = t.Clone()
		}
	}
	return c
}

// Equal reports whether two results hold the same terms and statistics.
func (r AnalysisResult) Equal(o AnalysisResult) bool {
	if r.Statistics != o.Statistics {
		return false
	}
	return slices.EqualFunc(r.Terms, o.Terms, func(a, b Term) bool {
		return a.Text == b.Text && a.Start == b.Start && a.End == b.End &&
			a.Classification == b.Classification && a.Score == b.Score &&
			a.Frequency == b.Frequency && a.Context == b.Context &&
			a.Rationale == b.Rationale && slices.Equal(a.Suggestions, b.Suggestions)
	})
}

// TermsIn returns the terms intersecting [start, end).
func (r AnalysisResult) TermsIn(start, end int) []Term {
	var out []Term
	for _, t := range r.Terms {
		if t.Intersects(start, end) {
			out = append(out, t)
		}
	}
	return out
}
