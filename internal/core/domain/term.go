package domain

import "slices"

// Classification is the verdict the analyzer assigns to a term.
type Classification string

// Available classifications.
const (
	// ClassValid marks a term that matches the glossary.
	ClassValid Classification = "valid"

	// ClassReview marks a term a reviewer should look at.
	ClassReview Classification = "review"

	// ClassCritical marks a term that contradicts the glossary.
	ClassCritical Classification = "critical"

	// ClassSpelling marks a spelling issue.
	ClassSpelling Classification = "spelling"

	// ClassGrammar marks a grammar issue.
	ClassGrammar Classification = "grammar"
)

// IsValid returns true if the classification is recognised.
func (c Classification) IsValid() bool {
	switch c {
	case ClassValid, ClassReview, ClassCritical, ClassSpelling, ClassGrammar:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Classification) String() string {
	return string(c)
}

// AllClassifications returns every classification in display order.
func AllClassifications() []Classification {
	return []Classification{
		ClassValid,
		ClassReview,
		ClassCritical,
		ClassSpelling,
		ClassGrammar,
	}
}

// Term is one flagged span of a snapshot.
// Offsets are rune indices into the snapshot that produced the term.
type Term struct {
	// Text is the flagged text, equal to the content at [Start, End).
	Text string `json:"text"`

	// Start is the inclusive start offset.
	Start int `json:"start"`

	// End is the exclusive end offset.
	End int `json:"end"`

	// Classification is the analyzer's verdict.
	Classification Classification `json:"classification"`

	// Score is the analyzer's confidence in the range 0-100.
	Score float64 `json:"score"`

	// Frequency is how many times the term occurs in the analyzed text.
	Frequency int `json:"frequency"`

	// Context is surrounding text supplied by the analyzer.
	Context string `json:"context,omitempty"`

	// Rationale explains the classification.
	Rationale string `json:"rationale,omitempty"`

	// Suggestions are replacement candidates.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Len returns the length of the span in runes.
func (t Term) Len() int {
	return t.End - t.Start
}

// Intersects reports whether the term's span intersects [start, end).
// An empty range at p intersects only terms that strictly contain p.
func (t Term) Intersects(start, end int) bool {
	if start == end {
		return t.Start < start && start < t.End
	}
	return t.Start < end && start < t.End
}

// Within reports whether the span lies inside [0, length).
func (t Term) Within(length int) bool {
	return t.Start >= 0 && t.Start < t.End && t.End <= length
}

// At returns a copy of the term positioned at [start, end).
// The receiver is never modified.
func (t Term) At(start, end int) Term {
	c := t.Clone()
	c.Start = start
	c.End = end
	return c
}

// Clone returns a deep copy of the term.
func (t Term) Clone() Term {
	c := t
	c.Suggestions = slices.Clone(t.Suggestions)
	return c
}

// SortTerms orders terms by start offset, then end offset.
func SortTerms(terms []Term) {
	slices.SortStableFunc(terms, func(a, b Term) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})
}
