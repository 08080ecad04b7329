package consistency

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// entryKind is how a glossary entry classifies its matches.
type entryKind int

const (
	// kindApproved marks a preferred term.
	kindApproved entryKind = iota
	// kindDeprecated marks a term with a preferred replacement.
	kindDeprecated
	// kindForbidden marks a term that must not appear.
	kindForbidden
)

// entry is one parsed glossary line.
type entry struct {
	kind        entryKind
	term        string
	replacement string
	pattern     *regexp.Regexp
	// literal entries match whole words only.
	literal bool
	line    int
}

// Glossary is the parsed form of the glossary text sent with a request.
//
// One entry per line; blank lines and lines starting with '#' are skipped:
//
//	term                 approved term
//	source = target      bilingual pair, target is approved
//	!term                forbidden term
//	wrong => right       deprecated term with its replacement
//	/regexp/             forbidden pattern
//	/regexp/ => right    deprecated pattern with its replacement
//
// Literal terms match case-insensitively on word boundaries.
type Glossary struct {
	entries []entry
}

// Len returns the number of entries.
func (g *Glossary) Len() int {
	return len(g.entries)
}

// ParseGlossary parses glossary text. An invalid pattern is reported with
// its line number and wraps domain.ErrInvalidInput.
func ParseGlossary(text string) (*Glossary, error) {
	g := &Glossary{}
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("%w: glossary line %d: %v", domain.ErrInvalidInput, n, err)
		}
		if e.term == "" && e.pattern == nil {
			continue
		}
		e.line = n
		g.entries = append(g.entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: glossary: %v", domain.ErrInvalidInput, err)
	}
	return g, nil
}

func parseEntry(line string) (entry, error) {
	lhs, replacement, deprecated := strings.Cut(line, "=>")
	lhs = strings.TrimSpace(lhs)
	replacement = strings.TrimSpace(replacement)

	if len(lhs) >= 2 && strings.HasPrefix(lhs, "/") && strings.HasSuffix(lhs, "/") {
		re, err := regexp.Compile(lhs[1 : len(lhs)-1])
		if err != nil {
			return entry{}, err
		}
		if deprecated {
			return entry{kind: kindDeprecated, term: lhs, replacement: replacement, pattern: re}, nil
		}
		return entry{kind: kindForbidden, term: lhs, pattern: re}, nil
	}

	switch {
	case deprecated:
		return literalEntry(kindDeprecated, lhs, replacement), nil
	case strings.HasPrefix(lhs, "!"):
		return literalEntry(kindForbidden, strings.TrimSpace(lhs[1:]), ""), nil
	}
	if _, target, ok := strings.Cut(lhs, "="); ok {
		return literalEntry(kindApproved, strings.TrimSpace(target), ""), nil
	}
	if _, target, ok := strings.Cut(lhs, "\t"); ok {
		return literalEntry(kindApproved, strings.TrimSpace(target), ""), nil
	}
	return literalEntry(kindApproved, lhs, ""), nil
}

func literalEntry(kind entryKind, term, replacement string) entry {
	if term == "" {
		return entry{}
	}
	return entry{
		kind:        kind,
		term:        term,
		replacement: replacement,
		pattern:     regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term)),
		literal:     true,
	}
}
