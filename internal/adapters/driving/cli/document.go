package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// readDocument loads path and extracts the text the analyzer sees.
func readDocument(ctx context.Context, path string) (*driven.NormaliseResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := documents.Normalise(ctx, &domain.RawDocument{Path: path, Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	engineLog.Debug("extracted %s text from %s (%q)", doc.Format, path, doc.Title)
	return doc, nil
}
