package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
	"github.com/custodia-labs/qpro/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// rrfK is the Reciprocal Rank Fusion constant.
const rrfK = 60

// noSeq orders chunks without a known insertion sequence after those with one.
const noSeq = math.MaxInt64

// scoredChunk holds intermediate search results before hydration.
type scoredChunk struct {
	chunkID string
	score   float64
	seq     int64
	source  string // "keyword", "vector", or "merged"
}

// RetrievalService combines keyword and vector search over stored chunks.
type RetrievalService struct {
	docStore         driven.DocumentStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	settings         domain.PipelineSettings
}

// NewRetrievalService creates a new retrieval service. The vector index
// and embedding service are optional; without both, retrieval is
// keyword-only.
func NewRetrievalService(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.PipelineSettings,
) *RetrievalService {
	if settings.TopK <= 0 {
		settings.TopK = domain.DefaultTopK
	}
	return &RetrievalService{
		docStore:         docStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		settings:         settings,
	}
}

// Retrieve returns at most k chunks most relevant to query. A
// non-positive k uses the configured top_k.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieval")
	defer logger.Timed("retrieval")()

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievedChunk{}, nil
	}
	if k <= 0 {
		k = s.settings.TopK
	}

	// Over-fetch so chunks removed since indexing don't shrink the result.
	internalLimit := k * 2
	logger.Fields("retrieve", map[string]any{"k": k, "limit": internalLimit, "vector": s.canDoVector()})

	var chunks []scoredChunk
	var err error
	if s.canDoVector() {
		chunks, err = s.hybridSearch(ctx, query, internalLimit)
	} else {
		chunks, err = s.keywordSearch(ctx, query, internalLimit)
	}
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return nil, domain.NewInfrastructure("retrieve", err)
	}

	results, err := s.hydrate(ctx, chunks, k)
	if err != nil {
		return nil, domain.NewInfrastructure("retrieve", err)
	}
	logger.Info("Retrieved %d chunks", len(results))
	return results, nil
}

func (s *RetrievalService) canDoVector() bool {
	return s.vectorIndex != nil && s.embeddingService != nil
}

// keywordSearch runs a BM25 match query.
func (s *RetrievalService) keywordSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.searchIndex == nil {
		return []scoredChunk{}, nil
	}

	hits, err := s.searchIndex.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, score: hit.Score, seq: knownSeq(hit.Seq), source: "keyword"}
	}
	return results, nil
}

// vectorSearch embeds the query and scans the vector index. Hits below
// the similarity floor are dropped.
func (s *RetrievalService) vectorSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	floor := s.settings.SimilarityFloor
	results := make([]scoredChunk, 0, len(hits))
	for _, hit := range hits {
		if floor != 0 && hit.Similarity < floor {
			continue
		}
		results = append(results, scoredChunk{chunkID: hit.ChunkID, score: hit.Similarity, seq: knownSeq(hit.Seq), source: "vector"})
	}
	return results, nil
}

// hybridSearch runs both searches in parallel and fuses them. If one
// side fails the other is used alone.
func (s *RetrievalService) hybridSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	var keywordResults, vectorResults []scoredChunk
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		keywordResults, keywordErr = s.keywordSearch(ctx, query, limit)
	}()
	go func() {
		defer wg.Done()
		vectorResults, vectorErr = s.vectorSearch(ctx, query, limit)
	}()
	wg.Wait()

	switch {
	case keywordErr != nil && vectorErr != nil:
		return nil, errors.Join(keywordErr, vectorErr)
	case keywordErr != nil:
		logger.Warn("Keyword search failed, using vector results only: %v", keywordErr)
		return vectorResults, nil
	case vectorErr != nil:
		logger.Warn("Vector search failed, using keyword results only: %v", vectorErr)
		return keywordResults, nil
	}

	merged := reciprocalRankFusion(keywordResults, vectorResults, rrfK)
	logger.Debug("Fused %d keyword + %d vector hits into %d", len(keywordResults), len(vectorResults), len(merged))
	return merged, nil
}

// reciprocalRankFusion merges ranked lists. Equal fused scores are
// ordered by insertion sequence, then by first appearance.
func reciprocalRankFusion(keyword, vector []scoredChunk, k int) []scoredChunk {
	index := make(map[string]int)
	var merged []scoredChunk

	add := func(list []scoredChunk) {
		for rank, c := range list {
			rrf := 1.0 / float64(k+rank+1)
			i, ok := index[c.chunkID]
			if !ok {
				index[c.chunkID] = len(merged)
				merged = append(merged, scoredChunk{chunkID: c.chunkID, score: rrf, seq: c.seq, source: "merged"})
				continue
			}
			merged[i].score += rrf
			if c.seq < merged[i].seq {
				merged[i].seq = c.seq
			}
		}
	}
	add(keyword)
	add(vector)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].seq < merged[j].seq
	})
	return merged
}

func knownSeq(seq int64) int64 {
	if seq <= 0 {
		return noSeq
	}
	return seq
}

// hydrate loads chunks and their documents, skipping any deleted since
// indexing, and keeps the best k. Equal scores go to the chunk stored
// first, whichever index produced the hit.
func (s *RetrievalService) hydrate(ctx context.Context, chunks []scoredChunk, k int) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0, len(chunks))
	docs := make(map[string]*domain.Document)

	for _, sc := range chunks {
		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}

		doc, ok := docs[chunk.DocumentID]
		if !ok {
			doc, err = s.docStore.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
			}
			docs[chunk.DocumentID] = doc
		}

		results = append(results, domain.RetrievedChunk{Chunk: *chunk, Document: *doc, Score: sc.score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return knownSeq(results[i].Chunk.Seq) < knownSeq(results[j].Chunk.Seq)
	})
	results = results[:min(k, len(results))]
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}
