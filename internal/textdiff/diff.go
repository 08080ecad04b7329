package textdiff

import "github.com/custodia-labs/lexiq/internal/core/domain"

// DefaultMaxAlignCells bounds the unit alignment table. Larger unmatched
// middles are reported as one changed region.
const DefaultMaxAlignCells = 1 << 22

// Differ locates changed segments between two revisions.
type Differ struct {
	estimator     *Estimator
	maxAlignCells int
}

// DifferOption configures a Differ.
type DifferOption func(*Differ)

// WithEstimator sets the similarity estimator used for PercentChanged.
func WithEstimator(e *Estimator) DifferOption {
	return func(d *Differ) {
		if e != nil {
			d.estimator = e
		}
	}
}

// WithMaxAlignCells bounds the alignment table size.
func WithMaxAlignCells(n int) DifferOption {
	return func(d *Differ) {
		if n > 0 {
			d.maxAlignCells = n
		}
	}
}

// NewDiffer creates a Differ with the given options.
func NewDiffer(opts ...DifferOption) *Differ {
	d := &Differ{
		estimator:     defaultEstimator,
		maxAlignCells: DefaultMaxAlignCells,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDiffer = NewDiffer()

// Diff compares previous and current using default settings.
func Diff(previous, current string) domain.ChangeProfile {
	return defaultDiffer.Diff(previous, current)
}

// Diff returns the change profile of current relative to previous.
//
// Changed segments are maximal runs of unaligned units, sorted by Start and
// non-overlapping. A pure deletion yields a segment with empty Content whose
// Prev range covers the removed text.
func (d *Differ) Diff(previous, current string) domain.ChangeProfile {
	profile := domain.ChangeProfile{
		PercentChanged: (1 - d.estimator.Similarity(previous, current)) * 100,
		Previous:       previous,
		Current:        current,
	}

	switch {
	case previous == current:
		return profile
	case current == "":
		return profile
	}

	prev, cur := []rune(previous), []rune(current)
	if len(prev) == 0 {
		profile.ChangedSegments = []domain.Segment{{
			Start:   0,
			End:     len(cur),
			Content: current,
			Changed: true,
		}}
		profile.EditedRunes = len(cur)
		return profile
	}

	prevUnits, curUnits := splitUnits(prev), splitUnits(cur)
	matches := d.align(unitTexts(prev, prevUnits), unitTexts(cur, curUnits))

	// Sentinel match past the end closes the final region.
	matches = append(matches, [2]int{len(prevUnits), len(curUnits)})
	pi, ci := 0, 0
	for _, m := range matches {
		if m[0] > pi || m[1] > ci {
			seg := region(prev, cur, prevUnits, curUnits, pi, m[0], ci, m[1])
			profile.ChangedSegments = append(profile.ChangedSegments, seg)
			profile.EditedRunes += editedRunes(prev[seg.PrevStart:seg.PrevEnd], cur[seg.Start:seg.End])
		}
		pi, ci = m[0]+1, m[1]+1
	}
	return profile
}

// region builds the segment for unaligned units prevUnits[pi:pj] and
// curUnits[ci:cj].
func region(prev, cur []rune, prevUnits, curUnits []span, pi, pj, ci, cj int) domain.Segment {
	seg := domain.Segment{Changed: true}
	seg.PrevStart, seg.PrevEnd = unitRange(prevUnits, pi, pj, len(prev))
	seg.Start, seg.End = unitRange(curUnits, ci, cj, len(cur))
	seg.Content = string(cur[seg.Start:seg.End])
	return seg
}

// unitRange returns the rune range covered by units[i:j], or an empty range
// at the boundary before units[i] when the run is empty.
func unitRange(units []span, i, j, length int) (int, int) {
	if i < j {
		return units[i].start, units[j-1].end
	}
	if i < len(units) {
		return units[i].start, units[i].start
	}
	return length, length
}

// editedRunes estimates the runes an edit touched once common affixes of
// the two versions of a region are removed.
func editedRunes(a, b []rune) int {
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		a, b = a[1:], b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		a, b = a[:len(a)-1], b[:len(b)-1]
	}
	return max(len(a), len(b))
}

// unitTexts returns the text of every unit.
func unitTexts(r []rune, units []span) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = string(r[u.start:u.end])
	}
	return out
}

// align returns matched unit index pairs in increasing order.
// Equal leading and trailing units are matched directly; the middle is
// aligned by longest common subsequence when it fits the table bound.
func (d *Differ) align(prev, cur []string) [][2]int {
	var head [][2]int
	lo := 0
	for lo < len(prev) && lo < len(cur) && prev[lo] == cur[lo] {
		head = append(head, [2]int{lo, lo})
		lo++
	}

	var tail [][2]int
	pe, ce := len(prev), len(cur)
	for pe > lo && ce > lo && prev[pe-1] == cur[ce-1] {
		pe--
		ce--
		tail = append(tail, [2]int{pe, ce})
	}

	matches := head
	n, m := pe-lo, ce-lo
	if n > 0 && m > 0 && (n+1)*(m+1) <= d.maxAlignCells {
		matches = append(matches, lcs(prev[lo:pe], cur[lo:ce], lo)...)
	}
	for i := len(tail) - 1; i >= 0; i-- {
		matches = append(matches, tail[i])
	}
	return matches
}

// lcs aligns a and b by longest common subsequence and returns the matched
// pairs shifted by offset.
func lcs(a, b []string, offset int) [][2]int {
	n, m := len(a), len(b)
	width := m + 1
	table := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				table[i*width+j] = table[(i+1)*width+j+1] + 1
			case table[(i+1)*width+j] >= table[i*width+j+1]:
				table[i*width+j] = table[(i+1)*width+j]
			default:
				table[i*width+j] = table[i*width+j+1]
			}
		}
	}

	var out [][2]int
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			out = append(out, [2]int{offset + i, offset + j})
			i++
			j++
		case table[(i+1)*width+j] >= table[i*width+j+1]:
			i++
		default:
			j++
		}
	}
	return out
}
