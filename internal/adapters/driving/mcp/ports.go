package mcp

import (
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
)

// Ports are the core services behind the MCP tools.
type Ports struct {
	// Sessions keeps one re-analysis service per document_id.
	Sessions driving.SessionService

	// Defaults supply the analysis parameters a tool call omits.
	Defaults domain.AnalysisSettings
}

// Validate reports a missing required port.
func (p *Ports) Validate() error {
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
