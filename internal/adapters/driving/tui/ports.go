// Package tui provides the interactive terminal interface for qpro.
// It is a driving adapter: every view talks to the core through driving ports.
package tui

import (
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Document lists, reads and deletes ingested documents. Required.
	Document driving.DocumentService

	// Retrieval backs the search view. Required.
	Retrieval driving.RetrievalService

	// Draft backs the draft view. Without it the view reports an error on compose.
	Draft driving.DraftService

	// Settings supplies the retrieval depth shown to the search and draft views.
	Settings driving.SettingsService
}

// Validate reports the first missing required port.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
