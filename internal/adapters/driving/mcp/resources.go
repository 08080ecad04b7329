package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
)

// uriScheme is the custom URI scheme for lexiq resources.
const uriScheme = "lexiq://"

// sessionInfo summarises one open document.
type sessionInfo struct {
	ID         string                 `json:"id"`
	State      domain.State           `json:"state"`
	Analysed   bool                   `json:"analysed"`
	Length     int                    `json:"length,omitempty"`
	Statistics *domain.Statistics     `json:"statistics,omitempty"`
	Result     *domain.AnalysisResult `json:"result,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Open documents and their analysis state",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{id}",
		Name:        "session",
		Description: "Current analysis of an open document",
		MIMEType:    "application/json",
	}, s.handleSessionResource)
}

// handleSessionsResource lists open documents.
func (s *Server) handleSessionsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ids := s.ports.Sessions.IDs()
	infos := make([]sessionInfo, 0, len(ids))
	for _, id := range ids {
		svc, ok := s.ports.Sessions.Find(id)
		if !ok {
			continue // Closed since IDs was taken.
		}
		info := describe(id, svc)
		if info.Result != nil {
			stats := info.Result.Statistics
			info.Statistics = &stats
			info.Result = nil
		}
		infos = append(infos, info)
	}
	return jsonResult(req.Params.URI, infos)
}

// handleSessionResource returns the current analysis of one document.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractSessionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	svc, ok := s.ports.Sessions.Find(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResult(req.Params.URI, describe(id, svc))
}

func describe(id string, svc driving.ReanalysisService) sessionInfo {
	info := sessionInfo{ID: id, State: svc.State()}
	if snapshot, ok := svc.LastSnapshot(); ok {
		info.Analysed = true
		info.Length = snapshot.Len()
	}
	if result, ok := svc.CurrentResult(); ok {
		info.Result = &result
	}
	return info
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the ID from a URI like lexiq://sessions/{id}.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
