package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// AnalyzeInput is the input schema for the analyze tool.
type AnalyzeInput struct {
	DocumentID    string `json:"document_id,omitempty" jsonschema:"document to re-analyse; omit to open a new document"`
	Text          string `json:"text" jsonschema:"the full current text of the document"`
	Glossary      string `json:"glossary,omitempty" jsonschema:"glossary content the terms are checked against"`
	Language      string `json:"language,omitempty" jsonschema:"language code such as en (default from settings)"`
	Domain        string `json:"domain,omitempty" jsonschema:"subject domain such as medical (default from settings)"`
	CheckGrammar  *bool  `json:"check_grammar,omitempty" jsonschema:"report grammar issues (default from settings)"`
	CheckSpelling *bool  `json:"check_spelling,omitempty" jsonschema:"report spelling issues (default from settings)"`
}

// AnalyzeOutput is the output schema for the analyze tool.
type AnalyzeOutput struct {
	DocumentID      string            `json:"document_id"`
	Path            string            `json:"path"`
	FellBack        bool              `json:"fell_back,omitempty"`
	PercentChanged  float64           `json:"percent_changed"`
	ChangedSegments int               `json:"changed_segments"`
	Terms           []domain.Term     `json:"terms"`
	Statistics      domain.Statistics `json:"statistics"`
	DurationMS      int64             `json:"duration_ms"`
}

// DocumentInput names a document.
type DocumentInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"document ID; omit to apply to every open document"`
}

// ClearCacheOutput is the output schema for the clear_cache tool.
type ClearCacheOutput struct {
	Cleared []string `json:"cleared"`
}

// CloseDocumentOutput is the output schema for the close_document tool.
type CloseDocumentOutput struct {
	Closed bool `json:"closed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze",
		Description: "Check a document's terminology against a glossary. Repeated calls with the same " +
			"document_id only re-analyse what changed since the previous call.",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Drop cached analyses for one document or for all open documents",
	}, s.handleClearCache)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "close_document",
		Description: "Forget a document and its analysis state",
	}, s.handleCloseDocument)
}

// handleAnalyze handles the analyze tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	id, svc := s.ports.Sessions.Open(input.DocumentID)

	outcome, err := svc.Reanalyze(ctx, s.editFor(input), nil)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("analysing %s: %w", id, err)
	}

	output := AnalyzeOutput{
		DocumentID: id,
		Path:       outcome.Path.String(),
		FellBack:   outcome.FellBack,
		Terms:      outcome.Result.Terms,
		Statistics: outcome.Result.Statistics,
		DurationMS: outcome.Duration.Milliseconds(),
	}
	if output.Terms == nil {
		output.Terms = []domain.Term{}
	}
	if outcome.Profile != nil {
		output.PercentChanged = outcome.Profile.PercentChanged
		output.ChangedSegments = len(outcome.Profile.ChangedSegments)
	}
	return nil, output, nil
}

// editFor builds an edit, filling unset parameters from the defaults.
func (s *Server) editFor(input AnalyzeInput) domain.Edit {
	defaults := s.ports.Defaults
	edit := domain.Edit{
		Snapshot: domain.NewSnapshot(input.Text),
		Glossary: input.Glossary,
		Language: input.Language,
		Domain:   input.Domain,
		Flags:    defaults.Flags,
	}
	if edit.Language == "" {
		edit.Language = defaults.Language
	}
	if edit.Domain == "" {
		edit.Domain = defaults.Domain
	}
	if input.CheckGrammar != nil {
		edit.Flags.Grammar = *input.CheckGrammar
	}
	if input.CheckSpelling != nil {
		edit.Flags.Spelling = *input.CheckSpelling
	}
	return edit
}

// handleClearCache handles the clear_cache tool invocation.
func (s *Server) handleClearCache(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, ClearCacheOutput, error) {
	ids := s.ports.Sessions.IDs()
	if input.DocumentID != "" {
		ids = []string{input.DocumentID}
	}

	output := ClearCacheOutput{Cleared: make([]string, 0, len(ids))}
	for _, id := range ids {
		svc, ok := s.ports.Sessions.Find(id)
		if !ok {
			return nil, ClearCacheOutput{}, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
		}
		svc.ClearCache(ctx)
		output.Cleared = append(output.Cleared, id)
	}
	return nil, output, nil
}

// handleCloseDocument handles the close_document tool invocation.
func (s *Server) handleCloseDocument(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, CloseDocumentOutput, error) {
	if input.DocumentID == "" {
		return nil, CloseDocumentOutput{}, fmt.Errorf("%w: document_id is required", domain.ErrInvalidInput)
	}
	return nil, CloseDocumentOutput{Closed: s.ports.Sessions.Remove(input.DocumentID)}, nil
}
