package mcp

import (
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Retrieval backs the search tool. Required.
	Retrieval driving.RetrievalService

	// Ingest backs the ingest and ingest_text tools.
	Ingest driving.IngestService

	// Draft backs the compose_draft tool.
	Draft driving.DraftService

	// Document backs the document resources.
	Document driving.DocumentService
}

// Validate ensures all required ports are set. Tools whose optional port
// is nil are not registered.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
