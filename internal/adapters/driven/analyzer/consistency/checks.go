package consistency

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// contextWindow is the number of runes kept on each side of a term.
const contextWindow = 50

// Confidence scores per check.
const (
	scoreForbidden     = 100
	scoreDeprecated    = 85
	scoreApproved      = 100
	scoreCapitalised   = 70
	scoreSpaces        = 95
	scoreUnbalanced    = 95
	scoreRepeatedWord  = 80
	minCapitalisedWord = 2
)

// document is the text under analysis. index maps the byte offset of each
// rune start to its rune offset, so regexp matches convert in constant time.
type document struct {
	text  string
	runes []rune
	index []int
}

func newDocument(text string) *document {
	d := &document{text: text, runes: []rune(text), index: make([]int, len(text)+1)}
	r := 0
	for b := range text {
		d.index[b] = r
		r++
	}
	d.index[len(text)] = len(d.runes)
	return d
}

// term builds a term for the byte range [from, to).
func (d *document) term(from, to int, class domain.Classification, score float64, rationale string, suggestions ...string) domain.Term {
	start, end := d.index[from], d.index[to]
	return domain.Term{
		Text:           d.text[from:to],
		Start:          start,
		End:            end,
		Classification: class,
		Score:          score,
		Context:        d.context(start, end),
		Rationale:      rationale,
		Suggestions:    suggestions,
	}
}

// context returns the rune window around [start, end), marking cut ends.
func (d *document) context(start, end int) string {
	from := max(0, start-contextWindow)
	to := min(len(d.runes), end+contextWindow)
	var b strings.Builder
	if from > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(d.runes[from:to]))
	if to < len(d.runes) {
		b.WriteString("...")
	}
	return b.String()
}

// wordBoundary reports whether the byte range [from, to) is not part of a
// longer word.
func (d *document) wordBoundary(from, to int) bool {
	if from > 0 {
		r, _ := utf8.DecodeLastRuneInString(d.text[:from])
		if isWordRune(r) {
			return false
		}
	}
	if to < len(d.text) {
		r, _ := utf8.DecodeRuneInString(d.text[to:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// checkGlossary classifies every match of every glossary entry, forbidden
// entries first, then deprecated, then approved.
func checkGlossary(d *document, g *Glossary) []domain.Term {
	var terms []domain.Term
	for _, kind := range []entryKind{kindForbidden, kindDeprecated, kindApproved} {
		terms = append(terms, matchEntries(d, g, kind)...)
	}
	return terms
}

func matchEntries(d *document, g *Glossary, kind entryKind) []domain.Term {
	var terms []domain.Term
	for _, e := range g.entries {
		if e.kind != kind {
			continue
		}
		for _, m := range e.pattern.FindAllStringIndex(d.text, -1) {
			if m[0] == m[1] || (e.literal && !d.wordBoundary(m[0], m[1])) {
				continue
			}
			switch e.kind {
			case kindForbidden:
				terms = append(terms, d.term(m[0], m[1], domain.ClassCritical, scoreForbidden,
					fmt.Sprintf("%q is forbidden by the glossary (line %d)", e.term, e.line)))
			case kindDeprecated:
				terms = append(terms, d.term(m[0], m[1], domain.ClassReview, scoreDeprecated,
					fmt.Sprintf("the glossary prefers %q (line %d)", e.replacement, e.line), e.replacement))
			default:
				terms = append(terms, d.term(m[0], m[1], domain.ClassValid, scoreApproved,
					fmt.Sprintf("matches glossary term %q (line %d)", e.term, e.line)))
			}
		}
	}
	return terms
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// checkCapitalisation flags words whose casing differs from the first
// occurrence of the same word. Sentence-initial words are not compared.
func checkCapitalisation(d *document) []domain.Term {
	first := make(map[string]string)
	var terms []domain.Term
	for _, m := range wordPattern.FindAllStringIndex(d.text, -1) {
		word := d.text[m[0]:m[1]]
		if utf8.RuneCountInString(word) < minCapitalisedWord || sentenceStart(d.text, m[0]) {
			continue
		}
		key := strings.ToLower(word)
		want, seen := first[key]
		if !seen {
			first[key] = word
			continue
		}
		if word != want {
			terms = append(terms, d.term(m[0], m[1], domain.ClassSpelling, scoreCapitalised,
				fmt.Sprintf("inconsistent capitalisation: %q elsewhere", want), want))
		}
	}
	return terms
}

// sentenceStart reports whether the word at byte offset b opens a sentence
// or a line.
func sentenceStart(text string, b int) bool {
	i := b
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if r == '\n' {
			return true
		}
		if !unicode.IsSpace(r) && !strings.ContainsRune(`"'“‘(«`, r) {
			return strings.ContainsRune(".!?…。！？:", r)
		}
		i -= size
	}
	return true
}

var multiSpace = regexp.MustCompile(` {2,}`)

// checkSpacing flags runs of spaces between words.
func checkSpacing(d *document) []domain.Term {
	var terms []domain.Term
	for _, m := range multiSpace.FindAllStringIndex(d.text, -1) {
		if m[0] == 0 || d.text[m[0]-1] == '\n' || m[1] == len(d.text) || d.text[m[1]] == '\n' {
			continue
		}
		terms = append(terms, d.term(m[0], m[1], domain.ClassGrammar, scoreSpaces,
			fmt.Sprintf("%d consecutive spaces", m[1]-m[0]), " "))
	}
	return terms
}

var bracketPairs = map[rune]rune{')': '(', ']': '[', '}': '{'}

// checkBrackets flags every bracket without a partner and the last double
// quote when their count is odd.
func checkBrackets(d *document) []domain.Term {
	type open struct {
		r    rune
		from int
	}
	var stack []open
	var terms []domain.Term
	unbalanced := func(from int, r rune) {
		to := from + utf8.RuneLen(r)
		terms = append(terms, d.term(from, to, domain.ClassGrammar, scoreUnbalanced,
			fmt.Sprintf("unbalanced %q", r)))
	}

	lastQuote, quotes := -1, 0
	for b, r := range d.text {
		switch r {
		case '(', '[', '{':
			stack = append(stack, open{r: r, from: b})
		case ')', ']', '}':
			if n := len(stack); n > 0 && stack[n-1].r == bracketPairs[r] {
				stack = stack[:n-1]
				continue
			}
			unbalanced(b, r)
		case '"':
			quotes++
			lastQuote = b
		}
	}
	for _, o := range stack {
		unbalanced(o.from, o.r)
	}
	if quotes%2 == 1 {
		unbalanced(lastQuote, '"')
	}
	return terms
}

// checkRepeatedWords flags a word that directly repeats the previous one.
func checkRepeatedWords(d *document) []domain.Term {
	var terms []domain.Term
	prev := []int(nil)
	for _, m := range wordPattern.FindAllStringIndex(d.text, -1) {
		if prev != nil && strings.TrimFunc(d.text[prev[1]:m[0]], unicode.IsSpace) == "" &&
			!strings.Contains(d.text[prev[1]:m[0]], "\n") &&
			strings.EqualFold(d.text[prev[0]:prev[1]], d.text[m[0]:m[1]]) &&
			!unicode.IsDigit([]rune(d.text[m[0]:m[1]])[0]) {
			terms = append(terms, d.term(prev[0], m[1], domain.ClassGrammar, scoreRepeatedWord,
				"repeated word", d.text[prev[0]:prev[1]]))
		}
		prev = m
	}
	return terms
}
