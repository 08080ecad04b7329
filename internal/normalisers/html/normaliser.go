package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// hidden elements never contribute visible text.
var hidden = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Math:     true,
}

// breaking elements start a new line when opened or closed.
var breaking = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Caption: true,
	atom.Blockquote: true, atom.Pre: true, atom.Figcaption: true,
	atom.Section: true, atom.Article: true, atom.Main: true, atom.Aside: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true,
}

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the visible text of an HTML document, one block per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var (
		z       = xhtml.NewTokenizer(bytes.NewReader(raw.Content))
		out     lineWriter
		title   strings.Builder
		lang    string
		inTitle bool
		depth   int // nesting inside hidden elements
	)

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
			return &driven.NormaliseResult{
				Title:    titleOr(title.String(), raw),
				Text:     out.String(),
				Format:   "html",
				Language: lang,
			}, nil

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Html && hasAttr:
				lang = languageAttr(z)
			case a == atom.Title:
				inTitle = tt == xhtml.StartTagToken
			case hidden[a]:
				if tt == xhtml.StartTagToken {
					depth++
				}
			case breaking[a]:
				out.newline()
			case a == atom.Td || a == atom.Th:
				out.write([]byte(" "))
			}

		case xhtml.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = false
			case hidden[a]:
				if depth > 0 {
					depth--
				}
			case breaking[a]:
				out.newline()
			}

		case xhtml.TextToken:
			switch {
			case inTitle:
				title.Write(z.Text())
			case depth == 0:
				out.write(z.Text())
			}
		}
	}
}

// languageAttr reads lang, or xml:lang for XHTML, from the current tag.
func languageAttr(z *xhtml.Tokenizer) string {
	var lang, xmlLang string
	for more := true; more; {
		var key, val []byte
		key, val, more = z.TagAttr()
		switch string(key) {
		case "lang":
			lang = string(val)
		case "xml:lang":
			xmlLang = string(val)
		}
	}
	if lang != "" {
		return strings.TrimSpace(lang)
	}
	return strings.TrimSpace(xmlLang)
}

func titleOr(title string, raw *domain.RawDocument) string {
	if t := strings.Join(strings.Fields(title), " "); t != "" {
		return t
	}
	return raw.Name()
}

// lineWriter joins text runs into lines with collapsed whitespace.
type lineWriter struct {
	lines []string
	cur   bytes.Buffer
}

func (w *lineWriter) write(text []byte) {
	w.cur.Write(text)
}

func (w *lineWriter) newline() {
	line := strings.Join(strings.Fields(w.cur.String()), " ")
	w.cur.Reset()
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

func (w *lineWriter) String() string {
	w.newline()
	return strings.Join(w.lines, "\n")
}
