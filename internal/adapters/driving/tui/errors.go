package tui

import "errors"

var (
	// ErrMissingDocumentService is returned when no document service is provided.
	ErrMissingDocumentService = errors.New("tui: document service is required")

	// ErrMissingRetrievalService is returned when no retrieval service is provided.
	ErrMissingRetrievalService = errors.New("tui: retrieval service is required")

	// ErrInvalidPorts is returned when the ports aggregate itself is nil.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)
