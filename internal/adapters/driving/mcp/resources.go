package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Resource URIs. Document IDs are path-escaped by clients.
const (
	documentsURI     = "qpro://documents"
	documentPrefix   = documentsURI + "/"
	detailsPrefix    = "qpro://details/"
	mimeJSON         = "application/json"
	mimePlainText    = "text/plain"
	detailTimeLayout = time.RFC3339
)

func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Every stored career document with its type and source file",
		MIMEType:    mimeJSON,
	}, s.readDocuments)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentPrefix + "{documentId}",
		Name:        "document-content",
		Description: "Extracted text of one document",
		MIMEType:    mimePlainText,
	}, s.readDocumentContent)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: detailsPrefix + "{documentId}",
		Name:        "document-details",
		Description: "Metadata and chunk count of one document",
		MIMEType:    mimeJSON,
	}, s.readDocumentDetails)
}

// documentInfo is one entry of the documents listing.
type documentInfo struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	File  string `json:"file"`
	URI   string `json:"uri"`
}

// detailsInfo is the body of a document-details resource.
type detailsInfo struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	URI        string            `json:"uri"`
	Chunks     int               `json:"chunks"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Collection string            `json:"collection,omitempty"`
}

func (s *Server) readDocuments(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, documentInfo{ID: d.ID, Type: d.Type, Title: d.Title, File: d.Filename(), URI: d.URI})
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) readDocumentContent(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := documentIDFrom(req.Params.URI, documentPrefix)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Document.GetContent(ctx, id)
	if err != nil {
		return nil, resourceError(req.Params.URI, err)
	}
	return textResource(req.Params.URI, mimePlainText, content), nil
}

func (s *Server) readDocumentDetails(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := documentIDFrom(req.Params.URI, detailsPrefix)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	d, err := s.ports.Document.GetDetails(ctx, id)
	if err != nil {
		return nil, resourceError(req.Params.URI, err)
	}
	return jsonResource(req.Params.URI, detailsInfo{
		ID:         d.ID,
		Type:       d.Type,
		Title:      d.Title,
		URI:        d.URI,
		Chunks:     d.ChunkCount,
		CreatedAt:  d.CreatedAt.Format(detailTimeLayout),
		UpdatedAt:  d.UpdatedAt.Format(detailTimeLayout),
		Metadata:   d.Metadata,
		Collection: d.Collection,
	})
}

// resourceError maps a missing document to the protocol's not-found error.
func resourceError(uri string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.ResourceNotFoundError(uri)
	}
	return fmt.Errorf("reading %s: %w", uri, err)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return textResource(uri, mimeJSON, string(data)), nil
}

func textResource(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// documentIDFrom returns the unescaped ID after prefix, or "" when uri
// does not start with prefix.
func documentIDFrom(uri, prefix string) string {
	raw, ok := strings.CutPrefix(uri, prefix)
	if !ok || raw == "" {
		return ""
	}
	id, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return id
}
