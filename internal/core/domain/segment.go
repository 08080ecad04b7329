package domain

// Segment is a contiguous span of the current document.
// Start and End are rune offsets into the current content.
// PrevStart and PrevEnd locate the aligned span in the previous content.
type Segment struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Content   string `json:"content"`
	Changed   bool   `json:"changed"`
	PrevStart int    `json:"prev_start"`
	PrevEnd   int    `json:"prev_end"`
}

// Len returns the segment length in the current document.
func (s Segment) Len() int {
	return s.End - s.Start
}

// PrevLen returns the segment length in the previous document.
func (s Segment) PrevLen() int {
	return s.PrevEnd - s.PrevStart
}

// Delta is the length change the segment introduced.
func (s Segment) Delta() int {
	return s.Len() - s.PrevLen()
}

// ChangeProfile describes how the current document differs from the
// previous one.
type ChangeProfile struct {
	// PercentChanged is (1 - similarity) * 100.
	PercentChanged float64

	// ChangedSegments are maximal changed regions, sorted by Start and
	// non-overlapping.
	ChangedSegments []Segment

	// EditedRunes estimates how many runes the edit touched inside the
	// changed segments.
	EditedRunes int

	// Previous is the content the profile was computed against.
	Previous string

	// Current is the edited content.
	Current string

	// Base fingerprints the analysed snapshot Previous belongs to.
	Base Fingerprint
}

// HasChanges reports whether any segment changed.
func (p ChangeProfile) HasChanges() bool {
	return len(p.ChangedSegments) > 0
}

// IsMinor reports whether the edit is small enough to count as a point edit:
// few segments, and either a tiny share of the document or few runes touched.
func (p ChangeProfile) IsMinor(maxPercent float64, maxSegments, maxRunes int) bool {
	if !p.HasChanges() || len(p.ChangedSegments) > maxSegments {
		return false
	}
	return p.PercentChanged < maxPercent || p.EditedRunes <= maxRunes
}

// ShiftBefore returns the summed length change of every changed segment that
// ends at or before prevOffset in the previous document.
func (p ChangeProfile) ShiftBefore(prevOffset int) int {
	shift := 0
	for _, s := range p.ChangedSegments {
		if s.PrevEnd > prevOffset {
			break
		}
		shift += s.Delta()
	}
	return shift
}

// TouchesPrevious reports whether [start, end) of the previous document
// intersects a changed segment.
func (p ChangeProfile) TouchesPrevious(start, end int) bool {
	probe := Term{Start: start, End: end}
	for _, s := range p.ChangedSegments {
		if probe.Intersects(s.PrevStart, s.PrevEnd) {
			return true
		}
	}
	return false
}
