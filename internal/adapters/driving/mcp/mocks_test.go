package mcp

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievedChunk
	err     error
	gotK    int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.gotK = k
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result  domain.IngestResult
	err     error
	gotPath string
	gotText string
	gotMeta map[string]any
}

func (m *mockIngestService) IngestFile(_ context.Context, path string, meta map[string]any) (domain.IngestResult, error) {
	m.gotPath, m.gotMeta = path, meta
	return m.result, m.err
}

func (m *mockIngestService) IngestText(_ context.Context, text string, meta map[string]any) (domain.IngestResult, error) {
	m.gotText, m.gotMeta = text, meta
	return m.result, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string, _ driving.BulkOptions) (domain.BulkResult, error) {
	return domain.BulkResult{}, m.err
}

func (m *mockIngestService) Watch(_ context.Context, _ string, _ driving.BulkOptions) error {
	return m.err
}

// mockDraftService is a mock implementation of driving.DraftService.
type mockDraftService struct {
	draft   *domain.Draft
	err     error
	gotPost string
	gotOpts driving.DraftOptions
}

func (m *mockDraftService) Compose(_ context.Context, jobPost string, opts driving.DraftOptions) (*domain.Draft, error) {
	m.gotPost, m.gotOpts = jobPost, opts
	return m.draft, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	details   *driving.DocumentDetails
	err       error
	gotID     string
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	m.gotID = id
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, id string) (string, error) {
	m.gotID = id
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	m.gotID = id
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.gotID = id
	return m.err
}

func (m *mockDocumentService) Open(_ context.Context, id string) error {
	m.gotID = id
	return m.err
}
