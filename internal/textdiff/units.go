package textdiff

import "unicode"

// span is a half-open rune range.
type span struct {
	start, end int
}

// sentenceEnders terminate a sentence when followed by whitespace or the end
// of the text.
var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true, '…': true,
	'。': true, '！': true, '？': true,
}

// splitUnits cuts r into consecutive sentence or line units. Trailing
// whitespace belongs to the unit it follows, so the units tile r exactly.
func splitUnits(r []rune) []span {
	var units []span
	start := 0
	i := 0
	for i < len(r) {
		c := r[i]
		i++
		boundary := c == '\n'
		if !boundary && sentenceEnders[c] && (i == len(r) || unicode.IsSpace(r[i])) {
			boundary = true
		}
		if !boundary {
			continue
		}
		for i < len(r) && unicode.IsSpace(r[i]) {
			i++
		}
		units = append(units, span{start, i})
		start = i
	}
	if start < len(r) {
		units = append(units, span{start, len(r)})
	}
	return units
}
