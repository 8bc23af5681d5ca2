package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

// mockSearchEngine implements driven.SearchEngine for testing.
type mockSearchEngine struct {
	hits      []driven.SearchHit
	searchErr error
}

func (m *mockSearchEngine) Index(_ context.Context, _ domain.Chunk) error { return nil }
func (m *mockSearchEngine) Delete(_ context.Context, _ string) error      { return nil }
func (m *mockSearchEngine) Close() error                                  { return nil }

func (m *mockSearchEngine) Search(_ context.Context, _ string, limit int) ([]driven.SearchHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits[:min(limit, len(m.hits))], nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorIndex) Add(_ context.Context, _ string, _ []float32) error { return nil }
func (m *mockVectorIndex) Delete(_ context.Context, _ string) error           { return nil }
func (m *mockVectorIndex) Close() error                                       { return nil }

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits[:min(k, len(m.hits))], nil
}

func seedCorpus(t *testing.T, st *testStores) {
	t.Helper()
	seedDocument(t, st, "cv", "Embedded Linux drivers in C for automotive ECUs", "CAN bus tooling and CI pipelines")
	seedDocument(t, st, "letter", "Dear hiring manager, I build React frontends")
	seedDocument(t, st, "notes", "Kubernetes operators written in Go")
}

func TestRetrievalService_EmptyQuery(t *testing.T) {
	st := newTestStores(t)
	svc := NewRetrievalService(st.docs, st.search, nil, nil, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetrievalService_EmptyStore(t *testing.T) {
	st := newTestStores(t)
	svc := NewRetrievalService(st.docs, st.search, st.vectors, &bagEmbedder{}, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(context.Background(), "Senior embedded engineer", 8)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetrievalService_KeywordOnly(t *testing.T) {
	st := newTestStores(t)
	seedCorpus(t, st)
	svc := NewRetrievalService(st.docs, st.search, nil, nil, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(context.Background(), "Kubernetes", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes-0", results[0].Chunk.ID)
	assert.Equal(t, "notes", results[0].Document.ID)
	assert.Equal(t, 1, results[0].Rank)
}

func TestRetrievalService_Hybrid(t *testing.T) {
	st := newTestStores(t)
	seedCorpus(t, st)
	svc := NewRetrievalService(st.docs, st.search, st.vectors, &bagEmbedder{}, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(context.Background(), "embedded linux drivers for automotive", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "cv-0", results[0].Chunk.ID)
	assert.Equal(t, 2, results[1].Rank)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRetrievalService_DefaultsToTopK(t *testing.T) {
	st := newTestStores(t)
	seedCorpus(t, st)
	settings := domain.DefaultPipelineSettings()
	settings.TopK = 1
	svc := NewRetrievalService(st.docs, st.search, st.vectors, &bagEmbedder{}, settings)

	results, err := svc.Retrieve(context.Background(), "Go Kubernetes React Linux", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRetrievalService_Deterministic(t *testing.T) {
	st := newTestStores(t)
	seedCorpus(t, st)
	svc := NewRetrievalService(st.docs, st.search, st.vectors, &bagEmbedder{}, domain.DefaultPipelineSettings())
	ctx := context.Background()

	first, err := svc.Retrieve(ctx, "Go CI pipelines and Linux", 8)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.Retrieve(ctx, "Go CI pipelines and Linux", 8)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrievalService_SkipsDeletedChunks(t *testing.T) {
	st := newTestStores(t)
	seedDocument(t, st, "cv", "Go services")
	engine := &mockSearchEngine{hits: []driven.SearchHit{
		{ChunkID: "gone-0", Score: 9},
		{ChunkID: "cv-0", Score: 1},
	}}
	svc := NewRetrievalService(st.docs, engine, nil, nil, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(context.Background(), "go", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cv-0", results[0].Chunk.ID)
	assert.Equal(t, 1, results[0].Rank)
}

func TestRetrievalService_TiesBrokenByInsertion(t *testing.T) {
	st := newTestStores(t)
	seedDocument(t, st, "a", "alpha")
	seedDocument(t, st, "b", "beta")

	engine := &mockSearchEngine{hits: []driven.SearchHit{{ChunkID: "a-0", Score: 1}}}
	vectors := &mockVectorIndex{hits: []driven.VectorHit{{ChunkID: "b-0", Similarity: 0.9, Seq: 7}}}
	svc := NewRetrievalService(st.docs, engine, vectors, &bagEmbedder{}, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-12)
	assert.Equal(t, "a-0", results[0].Chunk.ID, "the chunk stored first wins")
	assert.Equal(t, "b-0", results[1].Chunk.ID)
}

func TestRetrievalService_KeywordTiesFollowInsertion(t *testing.T) {
	st := newTestStores(t)
	ingest := newTestIngest(t, st, nil, 900, 150)
	ctx := context.Background()

	order := []string{"zeta", "alpha", "mike", "bravo", "yank"}
	for _, title := range order {
		_, err := ingest.IngestText(ctx, "Embedded firmware engineer", map[string]any{"title": title})
		require.NoError(t, err)
	}
	svc := NewRetrievalService(st.docs, st.search, nil, nil, domain.DefaultPipelineSettings())

	results, err := svc.Retrieve(ctx, "firmware", 10)
	require.NoError(t, err)
	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Document.ID
		assert.InDelta(t, results[0].Score, r.Score, 1e-12)
	}
	assert.Equal(t, order, got)

	top, err := svc.Retrieve(ctx, "firmware", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "zeta", top[0].Document.ID)
	assert.Equal(t, "alpha", top[1].Document.ID)
}

func TestRetrievalService_SimilarityFloor(t *testing.T) {
	st := newTestStores(t)
	seedDocument(t, st, "a", "alpha")
	seedDocument(t, st, "b", "beta")

	vectors := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "a-0", Similarity: 0.8, Seq: 1},
		{ChunkID: "b-0", Similarity: 0.1, Seq: 2},
	}}
	settings := domain.DefaultPipelineSettings()
	settings.SimilarityFloor = 0.5
	svc := NewRetrievalService(st.docs, &mockSearchEngine{}, vectors, &bagEmbedder{}, settings)

	results, err := svc.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a-0", results[0].Chunk.ID)
}

func TestRetrievalService_Degradation(t *testing.T) {
	st := newTestStores(t)
	seedDocument(t, st, "a", "alpha")
	boom := errors.New("boom")

	t.Run("keyword fails", func(t *testing.T) {
		vectors := &mockVectorIndex{hits: []driven.VectorHit{{ChunkID: "a-0", Similarity: 1, Seq: 1}}}
		svc := NewRetrievalService(st.docs, &mockSearchEngine{searchErr: boom}, vectors, &bagEmbedder{}, domain.DefaultPipelineSettings())

		results, err := svc.Retrieve(context.Background(), "alpha", 5)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("embedding fails", func(t *testing.T) {
		engine := &mockSearchEngine{hits: []driven.SearchHit{{ChunkID: "a-0", Score: 2}}}
		svc := NewRetrievalService(st.docs, engine, memory.NewVectorIndex(), &bagEmbedder{err: boom}, domain.DefaultPipelineSettings())

		results, err := svc.Retrieve(context.Background(), "alpha", 5)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("both fail", func(t *testing.T) {
		svc := NewRetrievalService(st.docs, &mockSearchEngine{searchErr: boom}, &mockVectorIndex{searchErr: boom}, &bagEmbedder{}, domain.DefaultPipelineSettings())

		_, err := svc.Retrieve(context.Background(), "alpha", 5)
		assert.ErrorIs(t, err, domain.ErrInfrastructure)
		assert.ErrorIs(t, err, boom)
	})
}

func TestReciprocalRankFusion(t *testing.T) {
	keyword := []scoredChunk{{chunkID: "x", seq: noSeq}, {chunkID: "both", seq: noSeq}}
	vector := []scoredChunk{{chunkID: "both", seq: 3}, {chunkID: "y", seq: 1}}

	merged := reciprocalRankFusion(keyword, vector, rrfK)
	require.Len(t, merged, 3)
	assert.Equal(t, "both", merged[0].chunkID)
	assert.InDelta(t, 1.0/62+1.0/61, merged[0].score, 1e-12)
	assert.Equal(t, int64(3), merged[0].seq)
	assert.Equal(t, "x", merged[1].chunkID)
	assert.Equal(t, "y", merged[2].chunkID)
}
