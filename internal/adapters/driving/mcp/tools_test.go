package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Retrieval == nil {
		ports.Retrieval = &mockRetrievalService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieved chunks", func(t *testing.T) {
		retrieval := &mockRetrievalService{
			results: []domain.RetrievedChunk{{
				Document: domain.Document{
					ID:       "cv",
					Type:     domain.TypeApplication,
					URI:      "/data/cv.pdf",
					Metadata: map[string]any{domain.MetaFilename: "cv.pdf"},
				},
				Chunk: domain.Chunk{Content: "Go and Kubernetes"},
				Score: 0.032,
				Rank:  1,
			}},
		}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "Go", Limit: 3})
		require.NoError(t, err)

		assert.Equal(t, 3, retrieval.gotK)
		require.Equal(t, 1, output.Count)
		got := output.Results[0]
		assert.Equal(t, "cv", got.DocumentID)
		assert.Equal(t, "cv.pdf", got.File)
		assert.Equal(t, domain.TypeApplication, got.Type)
		assert.Equal(t, 1, got.Rank)
		assert.Equal(t, "Go and Kubernetes", got.Content)
	})

	t.Run("default limit", func(t *testing.T) {
		retrieval := &mockRetrievalService{}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "Go"})
		require.NoError(t, err)
		assert.Equal(t, defaultSearchLimit, retrieval.gotK)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
	})

	t.Run("propagates failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retrieval: &mockRetrievalService{err: errors.New("index offline")}})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "Go"})
		assert.ErrorContains(t, err, "index offline")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns added count", func(t *testing.T) {
		ingest := &mockIngestService{result: domain.IngestResult{DocumentID: "cv", ChunksAdded: 4}}
		server := newTestServer(t, &Ports{Ingest: ingest})

		meta := map[string]any{"type": "application"}
		_, out, err := server.handleIngest(ctx, nil, IngestInput{Path: "/data/cv.pdf", Metadata: meta})
		require.NoError(t, err)

		assert.Equal(t, IngestOutput{Added: 4, DocumentID: "cv"}, out)
		assert.Equal(t, "/data/cv.pdf", ingest.gotPath)
		assert.Equal(t, meta, ingest.gotMeta)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{"added": 4, "doc_id": "cv"}`, string(data))
	})

	t.Run("requires path", func(t *testing.T) {
		server := newTestServer(t, &Ports{Ingest: &mockIngestService{}})
		_, _, err := server.handleIngest(ctx, nil, IngestInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Ingest: &mockIngestService{err: domain.NewNotFound("/nope.pdf")}})
		_, _, err := server.handleIngest(ctx, nil, IngestInput{Path: "/nope.pdf"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleIngestText(t *testing.T) {
	ingest := &mockIngestService{result: domain.IngestResult{DocumentID: "Acme SRE", ChunksAdded: 2}}
	server := newTestServer(t, &Ports{Ingest: ingest})

	_, out, err := server.handleIngestText(context.Background(), nil, IngestTextInput{
		Text:     "We need an SRE",
		Metadata: map[string]any{"title": "Acme SRE"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Added)
	assert.Equal(t, "We need an SRE", ingest.gotText)
}

func TestServer_handleComposeDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("maps draft to contract shape", func(t *testing.T) {
		d := &domain.Draft{
			CoverLetterMarkdown: "Dear team",
			ATS:                 domain.ATSReport{Covered: []string{"Go"}},
			Sources: []domain.RetrievedChunk{
				{Document: domain.Document{Metadata: map[string]any{domain.MetaFilename: "cv.pdf"}}},
				{Document: domain.Document{Metadata: map[string]any{domain.MetaFilename: "cv.pdf"}}},
			},
		}
		d.MarkMissing(domain.SectionCVBullets)
		draft := &mockDraftService{draft: d}
		server := newTestServer(t, &Ports{Draft: draft})

		_, out, err := server.handleComposeDraft(ctx, nil, ComposeDraftInput{JobPost: "SRE role", TopK: 5})
		require.NoError(t, err)

		assert.Equal(t, "SRE role", draft.gotPost)
		assert.Equal(t, 5, draft.gotOpts.TopK)
		assert.Equal(t, []string{"cv.pdf"}, out.Sources)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"cover_letter_markdown": "Dear team",
			"cv_bullets": [],
			"ats_report": {"covered": ["Go"], "missing": []},
			"missing_sections": ["cv_bullets"],
			"partial": true,
			"sources": ["cv.pdf"]
		}`, string(data))
	})

	t.Run("propagates timeout", func(t *testing.T) {
		draft := &mockDraftService{err: domain.NewGenerationTimeout(context.DeadlineExceeded)}
		server := newTestServer(t, &Ports{Draft: draft})

		_, _, err := server.handleComposeDraft(ctx, nil, ComposeDraftInput{JobPost: "SRE"})
		assert.ErrorIs(t, err, domain.ErrGenerationTimeout)
	})
}
