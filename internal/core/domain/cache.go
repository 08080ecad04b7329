package domain

import "time"

// Fingerprint identifies a cache entry. It is derived from the content and
// every analysis parameter that can change the outcome.
type Fingerprint string

// String returns the string representation.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns an abbreviated form for logs.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// CacheEntry is one stored analysis.
type CacheEntry struct {
	// Key is the entry fingerprint.
	Key Fingerprint `json:"key"`

	// Result is the stored analysis.
	Result AnalysisResult `json:"result"`

	// SourceContent is the content that was analysed.
	SourceContent string `json:"source_content"`

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`
}
