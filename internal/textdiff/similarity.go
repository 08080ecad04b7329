package textdiff

import "unicode/utf8"

// Default sampling parameters.
const (
	// DefaultSampleThreshold is the rune length above which inputs are sampled.
	DefaultSampleThreshold = 10000

	// DefaultSampleSize is the total rune length of a sample.
	DefaultSampleSize = 3000
)

// Estimator computes normalised similarity between two texts.
type Estimator struct {
	sampleThreshold int
	sampleSize      int
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSampleThreshold sets the length above which inputs are sampled.
func WithSampleThreshold(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.sampleThreshold = n
		}
	}
}

// WithSampleSize sets the total sample length.
func WithSampleSize(n int) Option {
	return func(e *Estimator) {
		if n >= 3 {
			e.sampleSize = n
		}
	}
}

// NewEstimator creates an Estimator with the given options.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		sampleThreshold: DefaultSampleThreshold,
		sampleSize:      DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEstimator = NewEstimator()

// Similarity returns the similarity of a and b using default sampling.
func Similarity(a, b string) float64 {
	return defaultEstimator.Similarity(a, b)
}

// Similarity returns 1 - editDistance(a, b) / max(len(a), len(b)).
//
// It returns exactly 1 only when a == b, and 0 when exactly one input is
// empty. When either input is longer than the sample threshold, both are
// replaced by samples before the distance is computed.
func (e *Estimator) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) > e.sampleThreshold || len(rb) > e.sampleThreshold {
		ra = Sample(ra, e.sampleSize)
		rb = Sample(rb, e.sampleSize)
	}

	longest := max(len(ra), len(rb))
	sim := 1.0 - float64(EditDistance(ra, rb))/float64(longest)
	if sim >= 1.0 {
		// Samples can coincide for texts that differ outside them.
		sim = 1.0 - 1.0/float64(max(utf8.RuneCountInString(a), utf8.RuneCountInString(b)))
	}
	return sim
}

// Sample reduces r to at most size runes taken from its first, middle and
// last thirds. Inputs no longer than size are returned unchanged.
func Sample(r []rune, size int) []rune {
	if len(r) <= size {
		return r
	}
	part := size / 3
	mid := len(r)/2 - part/2
	tail := size - 2*part

	out := make([]rune, 0, size)
	out = append(out, r[:part]...)
	out = append(out, r[mid:mid+part]...)
	out = append(out, r[len(r)-tail:]...)
	return out
}

// EditDistance returns the Levenshtein distance between a and b with unit
// costs for insertion, deletion and substitution.
func EditDistance(a, b []rune) int {
	// Common affixes never contribute to the distance.
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		a, b = a[1:], b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		a, b = a[:len(a)-1], b[:len(b)-1]
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
