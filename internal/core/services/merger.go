package services

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/logger"
)

var mergeLog = logger.For("merge")

// ResultMerger folds a partial analysis of the changed segments into the
// prior result of the whole document.
type ResultMerger struct {
	weights domain.QualityWeights
}

// NewResultMerger creates a merger that scores merged results with weights.
func NewResultMerger(weights domain.QualityWeights) *ResultMerger {
	return &ResultMerger{weights: weights}
}

// Merge builds the result for profile.Current.
//
// Prior terms are positioned in profile.Previous. A prior term intersecting a
// changed segment is dropped; every other prior term is re-located in the
// current content near its expected position. partialTerms are already
// positioned in the current content and are appended as they are. When a
// kept prior term and a partial term share span and classification, only
// the partial term is kept. Statistics are recomputed from the merged list.
//
// Merge returns domain.ErrStaleMergeTarget when prior does not belong to
// profile.Previous. The prior result is never modified.
func (m *ResultMerger) Merge(prior domain.AnalysisResult, partialTerms []domain.Term, profile domain.ChangeProfile) (domain.AnalysisResult, error) {
	prev := []rune(profile.Previous)
	cur := []rune(profile.Current)

	for _, t := range prior.Terms {
		if !t.Within(len(prev)) || string(prev[t.Start:t.End]) != t.Text {
			return domain.AnalysisResult{}, fmt.Errorf("%w: term %q at [%d,%d) does not match base %s",
				domain.ErrStaleMergeTarget, t.Text, t.Start, t.End, profile.Base.Short())
		}
	}

	merged := make([]domain.Term, 0, len(prior.Terms)+len(partialTerms))
	dropped, lost := 0, 0
	for _, t := range prior.Terms {
		if profile.TouchesPrevious(t.Start, t.End) {
			dropped++
			continue
		}
		start, ok := relocate(cur, t.Text, t.Start+profile.ShiftBefore(t.Start))
		if !ok {
			lost++
			continue
		}
		merged = append(merged, t.At(start, start+t.Len()))
	}

	for _, t := range partialTerms {
		if !t.Within(len(cur)) {
			mergeLog.Warn("partial term %q at [%d,%d) outside document, skipped", t.Text, t.Start, t.End)
			continue
		}
		merged = append(merged, t.Clone())
	}

	before := len(merged)
	merged = dedupeTerms(merged)
	mergeLog.Debug("kept %d prior terms, dropped %d stale, lost %d, added %d, %d duplicates",
		len(prior.Terms)-dropped-lost, dropped, lost, len(partialTerms), before-len(merged))
	return domain.NewAnalysisResult(merged, m.weights), nil
}

// dedupeTerms removes terms with the same span and classification as a later
// term, so fresh partial terms replace identical prior ones.
func dedupeTerms(terms []domain.Term) []domain.Term {
	type key struct {
		start, end int
		class      domain.Classification
	}
	seen := make(map[key]bool, len(terms))
	out := make([]domain.Term, 0, len(terms))
	for i := len(terms) - 1; i >= 0; i-- {
		k := key{terms[i].Start, terms[i].End, terms[i].Classification}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, terms[i])
	}
	slices.Reverse(out)
	return out
}

// relocate finds text in content, preferring the occurrence nearest to hint.
// An occurrence exactly at hint wins immediately.
func relocate(content []rune, text string, hint int) (int, bool) {
	needle := []rune(text)
	n := len(needle)
	if n == 0 || n > len(content) {
		return 0, false
	}
	if hint >= 0 && hint+n <= len(content) && slices.Equal(content[hint:hint+n], needle) {
		return hint, true
	}

	best, bestDist := -1, 0
	for i := 0; i+n <= len(content); i++ {
		if content[i] != needle[0] || !slices.Equal(content[i:i+n], needle) {
			continue
		}
		dist := i - hint
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, best >= 0
}
