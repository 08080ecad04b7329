// Package markdown provides a Normaliser for Markdown documents.
// Documents are parsed with goldmark and only prose reaches the analyzer:
// code, images, raw HTML and autolinked URLs are dropped.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	parser parser.Parser
}

// New creates a new Markdown normaliser with GitHub flavoured extensions.
func New() *Normaliser {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	return &Normaliser{parser: md.Parser()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// frontMatter holds the keys read from a YAML header.
type frontMatter struct {
	Title    string `yaml:"title"`
	Lang     string `yaml:"lang"`
	Language string `yaml:"language"`
}

// Normalise converts a markdown document to plain prose.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	meta, body, err := splitFrontMatter(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: front matter: %v", domain.ErrInvalidInput, err)
	}

	doc := n.parser.Parse(text.NewReader(body))
	ex := &extractor{source: body}
	if err := ast.Walk(doc, ex.walk); err != nil {
		return nil, err
	}

	result := &driven.NormaliseResult{
		Title:    meta.Title,
		Text:     strings.TrimSpace(ex.buf.String()),
		Format:   "markdown",
		Language: meta.Lang,
	}
	if result.Language == "" {
		result.Language = meta.Language
	}
	if result.Title == "" {
		result.Title = ex.title
	}
	if result.Title == "" {
		result.Title = raw.Name()
	}
	return result, nil
}

// splitFrontMatter separates a leading "---" YAML block from the body.
func splitFrontMatter(content []byte) (frontMatter, []byte, error) {
	var meta frontMatter

	rest, ok := bytes.CutPrefix(content, []byte("---\n"))
	if !ok {
		return meta, content, nil
	}
	header, body, found := bytes.Cut(rest, []byte("\n---\n"))
	if !found {
		header, found = bytes.CutSuffix(rest, []byte("\n---"))
		if !found {
			return meta, content, nil
		}
		body = nil
	}

	if err := yaml.Unmarshal(header, &meta); err != nil {
		return meta, nil, err
	}
	return meta, body, nil
}

// extractor collects the prose of a goldmark AST.
type extractor struct {
	source []byte
	buf    strings.Builder
	title  string
}

func (e *extractor) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan,
		*ast.HTMLBlock, *ast.RawHTML, *ast.Image, *ast.AutoLink:
		return ast.WalkSkipChildren, nil

	case *ast.Heading:
		if entering {
			e.separate("\n\n")
			if node.Level == 1 && e.title == "" {
				e.title = plainText(node, e.source)
			}
		}

	case *ast.List:
		if entering {
			if _, nested := node.Parent().(*ast.ListItem); nested {
				e.separate("\n")
			} else {
				e.separate("\n\n")
			}
		}

	case *ast.Paragraph, *ast.Blockquote, *east.Table:
		if entering {
			e.separate("\n\n")
		}

	case *ast.TextBlock, *east.TableHeader, *east.TableRow:
		if entering {
			e.separate("\n")
		}

	case *east.TableCell:
		if !entering && node.NextSibling() != nil {
			e.buf.WriteByte('\t')
		}

	case *ast.Text:
		if entering {
			e.write(node.Segment.Value(e.source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				e.buf.WriteByte('\n')
			}
		}

	case *ast.String:
		if entering {
			e.write(node.Value)
		}
	}
	return ast.WalkContinue, nil
}

// separate starts a new block unless nothing has been written yet or the
// output already ends with sep.
func (e *extractor) separate(sep string) {
	out := e.buf.String()
	if out == "" || strings.HasSuffix(out, sep) {
		return
	}
	e.buf.WriteString(strings.TrimPrefix(sep, trailingNewlines(out)))
}

func (e *extractor) write(value []byte) {
	e.buf.WriteString(html.UnescapeString(string(util.UnescapePunctuations(value))))
}

func trailingNewlines(s string) string {
	return s[len(strings.TrimRight(s, "\n")):]
}

// plainText returns the prose of n's children on one line.
func plainText(n ast.Node, source []byte) string {
	ex := &extractor{source: source}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		_ = ast.Walk(c, ex.walk)
	}
	return strings.TrimSpace(strings.ReplaceAll(ex.buf.String(), "\n", " "))
}
