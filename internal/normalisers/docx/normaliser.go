// Package docx provides a Normaliser for Word documents.
// Paragraph text is streamed from word/document.xml, one paragraph per line.
// Deleted revisions (w:delText) are not part of the visible text and are
// skipped.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"

	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	// maxPartSize bounds how much of one archive member is decompressed.
	maxPartSize = 64 << 20
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{mimeType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the paragraph text of a DOCX document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	part, err := archive.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, documentPart, err)
	}
	text, err := paragraphs(io.LimitReader(part, maxPartSize))
	part.Close()
	if err != nil {
		return nil, err
	}

	props, err := readCoreProperties(archive)
	if err != nil {
		return nil, err
	}

	result := &driven.NormaliseResult{
		Title:    strings.TrimSpace(props.Title),
		Text:     text,
		Format:   "docx",
		Language: strings.TrimSpace(props.Language),
	}
	if result.Title == "" {
		result.Title = raw.Name()
	}
	return result, nil
}

// paragraphs streams the body text, ending each paragraph with a newline.
func paragraphs(r io.Reader) (string, error) {
	var (
		dec    = xml.NewDecoder(r)
		b      strings.Builder
		inRun  int
		inText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun++
			case "t":
				inText = inRun > 0
			case "tab":
				if inRun > 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					b.WriteByte('\n')
				}
			}

		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun--
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}

		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// coreProperties is the subset of docProps/core.xml lexiq reads.
type coreProperties struct {
	Title    string `xml:"title"`
	Language string `xml:"language"`
}

// readCoreProperties returns the document properties. The part is optional.
func readCoreProperties(archive *zip.Reader) (coreProperties, error) {
	var props coreProperties

	part, err := archive.Open(corePart)
	if errors.Is(err, fs.ErrNotExist) {
		return props, nil
	}
	if err != nil {
		return props, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, corePart, err)
	}
	defer part.Close()

	if err := xml.NewDecoder(io.LimitReader(part, maxPartSize)).Decode(&props); err != nil {
		return props, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, corePart, err)
	}
	return props, nil
}
