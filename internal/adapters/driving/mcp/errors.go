// Package mcp provides an MCP (Model Context Protocol) server adapter for qpro.
// It lets AI assistants ingest career documents, search them and compose
// drafts against the local store.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
