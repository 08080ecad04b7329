package domain

import (
	"time"
	"unicode/utf8"
)

// CheckFlags toggles the language-quality checks of an analysis.
type CheckFlags struct {
	// Grammar enables grammar checking.
	Grammar bool `json:"check_grammar"`

	// Spelling enables spelling checking.
	Spelling bool `json:"check_spelling"`
}

// Any reports whether at least one check is enabled.
func (f CheckFlags) Any() bool {
	return f.Grammar || f.Spelling
}

// Snapshot is an immutable document revision produced by an edit.
type Snapshot struct {
	// Content is the full document text.
	Content string

	// Timestamp is when the revision was taken.
	Timestamp time.Time
}

// NewSnapshot creates a snapshot of content taken now.
func NewSnapshot(content string) Snapshot {
	return Snapshot{Content: content, Timestamp: time.Now()}
}

// Len returns the content length in runes.
func (s Snapshot) Len() int {
	return utf8.RuneCountInString(s.Content)
}

// AnalysisRequest carries everything the analyzer needs for one document.
type AnalysisRequest struct {
	// Text is the content to analyse.
	Text string `json:"text"`

	// Glossary is the glossary content, passed through unchanged.
	Glossary string `json:"glossary"`

	// Language is an opaque language code such as "en".
	Language string `json:"language"`

	// Domain is an opaque subject domain such as "general".
	Domain string `json:"domain"`

	// Flags selects the language-quality checks.
	Flags CheckFlags `json:"flags"`
}

// WithText returns a copy of the request for different text.
func (r AnalysisRequest) WithText(text string) AnalysisRequest {
	r.Text = text
	return r
}

// SameParameters reports whether two requests share language, domain,
// glossary and flags.
func (r AnalysisRequest) SameParameters(o AnalysisRequest) bool {
	return r.Language == o.Language && r.Domain == o.Domain &&
		r.Glossary == o.Glossary && r.Flags == o.Flags
}

// Edit is a content-change event delivered to the re-analysis policy.
type Edit struct {
	// Snapshot is the new document revision.
	Snapshot Snapshot

	// Glossary is the glossary content.
	Glossary string

	// Language is an opaque language code.
	Language string

	// Domain is an opaque subject domain.
	Domain string

	// Flags selects the language-quality checks.
	Flags CheckFlags
}

// Request returns the analysis request for the whole snapshot.
func (e Edit) Request() AnalysisRequest {
	return AnalysisRequest{
		Text:     e.Snapshot.Content,
		Glossary: e.Glossary,
		Language: e.Language,
		Domain:   e.Domain,
		Flags:    e.Flags,
	}
}
