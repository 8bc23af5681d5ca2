package tui

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

type mockDocumentService struct {
	docs    []domain.Document
	content map[string]string
	deleted []string
}

func (m *mockDocumentService) List(context.Context, string) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.NewNotFound(id)
}

func (m *mockDocumentService) GetContent(_ context.Context, id string) (string, error) {
	return m.content[id], nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	if id == "missing" {
		return nil, domain.NewNotFound(id)
	}
	return &driving.DocumentDetails{ID: id, ChunkCount: 2}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Open(context.Context, string) error { return nil }

type mockRetrievalService struct {
	hits []domain.RetrievedChunk
	gotK int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.gotK = k
	return m.hits, nil
}

type mockDraftService struct {
	draft *domain.Draft
}

func (m *mockDraftService) Compose(context.Context, string, driving.DraftOptions) (*domain.Draft, error) {
	return m.draft, nil
}

type mockSettingsService struct {
	driving.SettingsService
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}
