// Package consistency implements the analyzer port with deterministic
// checks that need no model or network.
//
// Glossary entries are always applied. Spelling adds a capitalisation
// consistency check; grammar adds spacing, bracket balance and repeated
// word checks. Results depend only on the request, so the backend is safe
// to cache and to run concurrently.
package consistency

import (
	"context"
	"sync"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/logger"
)

// Ensure Analyzer implements the interface.
var _ driven.Analyzer = (*Analyzer)(nil)

const name = "consistency"

var log = logger.For("analyzer/consistency")

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWeights sets the quality weights used for the returned statistics.
func WithWeights(w domain.QualityWeights) Option {
	return func(a *Analyzer) {
		a.weights = w
	}
}

// Analyzer runs rule-based checks locally.
type Analyzer struct {
	weights domain.QualityWeights

	// The glossary is usually identical across the chunks of a run.
	mu           sync.Mutex
	glossaryText string
	glossary     *Glossary
}

// New creates a consistency analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{weights: domain.DefaultQualityWeights()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the backend name.
func (a *Analyzer) Name() string {
	return name
}

// Analyze checks req.Text. An unparsable glossary is an ErrInvalidInput.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, err
	}
	g, err := a.parse(req.Glossary)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	d := newDocument(req.Text)
	terms := checkGlossary(d, g)
	if req.Flags.Spelling {
		terms = append(terms, checkCapitalisation(d)...)
	}
	if req.Flags.Grammar {
		terms = append(terms, checkSpacing(d)...)
		terms = append(terms, checkBrackets(d)...)
		terms = append(terms, checkRepeatedWords(d)...)
	}

	terms = dedupe(terms)
	if terms == nil {
		terms = []domain.Term{}
	}
	countFrequencies(terms)
	log.Debug("%d terms in %d runes (%d glossary entries)", len(terms), len(d.runes), g.Len())
	return domain.NewAnalysisResult(terms, a.weights), nil
}

func (a *Analyzer) parse(text string) (*Glossary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.glossary != nil && a.glossaryText == text {
		return a.glossary, nil
	}
	g, err := ParseGlossary(text)
	if err != nil {
		return nil, err
	}
	a.glossaryText, a.glossary = text, g
	return g, nil
}

// dedupe keeps the first term for each span. Checks run in severity order,
// so a forbidden match wins over an approved one on the same text.
func dedupe(terms []domain.Term) []domain.Term {
	type span struct{ start, end int }
	seen := make(map[span]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		k := span{t.Start, t.End}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// countFrequencies sets Frequency to the number of terms sharing the same
// text and classification.
func countFrequencies(terms []domain.Term) {
	type key struct {
		text  string
		class domain.Classification
	}
	counts := make(map[key]int)
	for _, t := range terms {
		counts[key{t.Text, t.Classification}]++
	}
	for i := range terms {
		terms[i].Frequency = counts[key{terms[i].Text, terms[i].Classification}]
	}
}
