// Package mcp serves lexiq over the Model Context Protocol so assistants
// can keep a terminology analysis current while they edit a document.
package mcp

import "errors"

var (
	ErrMissingSessionService = errors.New("mcp: session service is required")

	// ErrUnknownDocument is a document_id with no open session.
	ErrUnknownDocument = errors.New("mcp: unknown document")
)
