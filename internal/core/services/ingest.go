package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
	"github.com/custodia-labs/qpro/internal/logger"
	"github.com/custodia-labs/qpro/internal/metadata"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultIngestWorkers bounds concurrent file ingestion in bulk mode.
const DefaultIngestWorkers = 4

// embedBatchSize is the number of chunks sent per embedding call.
const embedBatchSize = 32

// SourceFactory opens a document source for a directory.
type SourceFactory func(root string) driven.DocumentSource

// IngestService extracts, chunks, embeds and stores documents.
type IngestService struct {
	registry    driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	docStore    driven.DocumentStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	documents   *DocumentService
	sources     SourceFactory

	// ids serialises store calls for the same doc_id.
	ids keyedMutex
}

// NewIngestService creates a new ingest service. The vector index and
// embedding service are optional; without both, chunks are stored for
// keyword search only.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		registry:    registry,
		pipeline:    pipeline,
		docStore:    docStore,
		searchIndex: searchIndex,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		documents:   NewDocumentService(docStore, searchIndex, vectorIndex),
	}
}

// SetSourceFactory sets how directories are walked and watched.
// Directory ingestion is unavailable until one is set.
func (s *IngestService) SetSourceFactory(f SourceFactory) {
	s.sources = f
}

// IngestFile extracts, chunks and stores a single file.
func (s *IngestService) IngestFile(ctx context.Context, path string, meta map[string]any) (domain.IngestResult, error) {
	logger.Section("Ingest")
	defer logger.Timed("ingest " + path)()
	logger.Debug("File: %s", path)

	path = absPath(path)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.IngestResult{}, domain.NewNotFound(path)
		}
		return domain.IngestResult{}, &domain.Error{Kind: domain.ErrInfrastructure, Stage: "read", Path: path, Err: err}
	}
	if info.IsDir() {
		return domain.IngestResult{}, domain.NewValidation(path, errors.New("is a directory"))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.IngestResult{}, &domain.Error{Kind: domain.ErrInfrastructure, Stage: "read", Path: path, Err: err}
	}

	return s.ingestRaw(ctx, &domain.RawDocument{URI: path, Content: content}, meta)
}

// IngestText chunks and stores caller-supplied text. There is no
// extraction step; doc_id comes from the title, else a fresh "doc-" ID
// so untitled snippets never replace one another.
func (s *IngestService) IngestText(ctx context.Context, text string, meta map[string]any) (domain.IngestResult, error) {
	logger.Section("Ingest text")

	fields := copyFields(meta)
	if _, ok := fields[domain.MetaFormat]; !ok {
		fields[domain.MetaFormat] = "text"
	}
	if isBlank(fields[domain.MetaDocID]) && isBlank(fields["title"]) {
		fields[domain.MetaDocID] = "doc-" + uuid.NewString()[:8]
	}
	normalised, err := metadata.Normalise(fields, metadata.Source{})
	if err != nil {
		return domain.IngestResult{}, err
	}

	now := time.Now()
	doc := &domain.Document{
		Collection: domain.DefaultCollection,
		Content:    text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyMetadata(doc, normalised)
	return s.store(ctx, doc)
}

// ingestRaw runs extraction, metadata normalisation and storage for raw
// bytes. Caller metadata overrides fields found in the file.
func (s *IngestService) ingestRaw(ctx context.Context, raw *domain.RawDocument, meta map[string]any) (domain.IngestResult, error) {
	raw.Metadata = copyFields(meta)
	if raw.MIMEType == "" {
		raw.MIMEType = s.registry.DetectMIMEType(raw.URI, raw.Content)
	}
	logger.Debug("MIME type: %s (%d bytes)", raw.MIMEType, len(raw.Content))

	res, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return domain.IngestResult{}, err
	}
	doc := res.Document

	merged := make(map[string]any, len(res.Fields)+len(doc.Metadata)+len(meta))
	for k, v := range res.Fields {
		merged[k] = v
	}
	for k, v := range doc.Metadata {
		merged[k] = v
	}
	for k, v := range meta {
		merged[k] = v
	}

	normalised, err := metadata.Normalise(merged, metadata.Source{
		Path:     raw.URI,
		Markdown: merged[domain.MetaFormat] == "markdown",
	})
	if err != nil {
		return domain.IngestResult{}, err
	}
	applyMetadata(&doc, normalised)
	return s.store(ctx, &doc)
}

func applyMetadata(doc *domain.Document, meta map[string]any) {
	doc.Metadata = meta
	doc.ID = metadata.String(meta[domain.MetaDocID])
	doc.Type = metadata.String(meta[domain.MetaType])
	if title, ok := meta["title"].(string); ok && title != "" {
		doc.Title = title
	}
}

func isBlank(v any) bool {
	return v == nil || strings.TrimSpace(metadata.String(v)) == ""
}

func copyFields(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// store chunks, embeds and persists a document. Re-ingesting the same
// source replaces its previous chunks and keeps its creation time; a
// doc_id already held by another source is a validation error.
func (s *IngestService) store(ctx context.Context, doc *domain.Document) (domain.IngestResult, error) {
	defer s.ids.lock(doc.ID)()

	prev, err := s.previous(ctx, doc)
	if err != nil {
		return domain.IngestResult{}, err
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return domain.IngestResult{}, domain.NewInfrastructure("chunk", err)
	}
	logger.Debug("Document %s: %d chunks", doc.ID, len(chunks))

	if err := s.embed(ctx, chunks); err != nil {
		return domain.IngestResult{}, err
	}
	if prev != nil {
		if !prev.CreatedAt.IsZero() {
			doc.CreatedAt = prev.CreatedAt
		}
		if err := s.documents.Delete(ctx, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.IngestResult{}, err
		}
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return domain.IngestResult{}, domain.NewInfrastructure("store", err)
	}
	if len(chunks) > 0 {
		if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
			return domain.IngestResult{}, domain.NewInfrastructure("store", err)
		}
	}

	for i := range chunks {
		if s.searchIndex != nil {
			if err := s.searchIndex.Index(ctx, chunks[i]); err != nil {
				return domain.IngestResult{}, domain.NewInfrastructure("index", err)
			}
		}
		if s.vectorIndex != nil && len(chunks[i].Embedding) > 0 {
			if err := s.vectorIndex.Add(ctx, chunks[i].ID, chunks[i].Embedding); err != nil {
				return domain.IngestResult{}, domain.NewInfrastructure("vectors", err)
			}
		}
	}

	logger.Info("Ingested %s (%d chunks)", doc.ID, len(chunks))
	return domain.IngestResult{DocumentID: doc.ID, ChunksAdded: len(chunks)}, nil
}

// previous returns the stored version of doc, or nil when there is none.
// The stored version must come from the same source.
func (s *IngestService) previous(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	prev, err := s.docStore.GetDocument(ctx, doc.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewInfrastructure("store", err)
	}
	if prev.URI != doc.URI {
		return nil, &domain.Error{
			Kind:  domain.ErrValidation,
			Stage: "store",
			Path:  doc.URI,
			Err:   fmt.Errorf("doc_id %q already holds %s; pass a distinct doc_id", doc.ID, sourceName(prev.URI)),
		}
	}
	return prev, nil
}

func sourceName(uri string) string {
	if uri == "" {
		return "manually supplied text"
	}
	return uri
}

// embed fills in chunk embeddings in batches.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil || len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return domain.NewInfrastructure("embed", err)
		}
		if len(vectors) != len(texts) {
			return domain.NewInfrastructure("embed", fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(texts)))
		}
		for i, v := range vectors {
			chunks[start+i].Embedding = v
		}
	}
	return nil
}

// IngestDirectory ingests every visible file under root with a bounded
// worker pool. Per-file failures are collected, never fatal.
func (s *IngestService) IngestDirectory(ctx context.Context, root string, opts driving.BulkOptions) (domain.BulkResult, error) {
	root = absPath(root)
	src, err := s.openSource(ctx, root)
	if err != nil {
		return domain.BulkResult{}, err
	}
	defer src.Close()

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultIngestWorkers
	}
	logger.Section("Bulk ingest")
	defer logger.Timed("bulk ingest " + root)()
	logger.Debug("Root: %s, workers: %d, type: %q", root, workers, opts.Type)

	var (
		mu     sync.Mutex
		result domain.BulkResult
	)
	record := func(path string, res domain.IngestResult, err error) {
		mu.Lock()
		if err != nil {
			logger.Warn("Failed to ingest %s: %v", path, err)
			result.Failed = append(result.Failed, domain.FileError{Path: path, Err: err})
		} else {
			result.Files++
			result.Chunks += res.ChunksAdded
		}
		mu.Unlock()
		if opts.OnFile != nil {
			opts.OnFile(path, res, err)
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)

	docs, errs := src.Walk(ctx)
	for docs != nil || errs != nil {
		select {
		case raw, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			g.Go(func() error {
				res, err := s.ingestRaw(ctx, &raw, bulkMetadata(opts, root, raw.URI))
				record(raw.URI, res, err)
				return nil
			})
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			path := root
			var de *domain.Error
			if errors.As(err, &de) && de.Path != "" {
				path = de.Path
			}
			record(path, domain.IngestResult{}, err)
		}
	}
	_ = g.Wait()

	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].Path < result.Failed[j].Path
	})
	logger.Info("Bulk ingest: %d files, %d chunks, %d failed", result.Files, result.Chunks, len(result.Failed))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func bulkMetadata(opts driving.BulkOptions, root, path string) map[string]any {
	meta := copyFields(opts.Metadata)
	if opts.Type != "" {
		meta[domain.MetaType] = opts.Type
	}
	if isBlank(meta[domain.MetaDocID]) {
		if id := relativeID(root, path); id != "" {
			meta[domain.MetaDocID] = id
		}
	}
	return meta
}

// relativeID names a file by its path below root without the extension,
// joining directories with "-": job_posts/scania.md is job_posts-scania
// and a top-level cv.pdf is plain cv.
func relativeID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (s *IngestService) openSource(ctx context.Context, root string) (driven.DocumentSource, error) {
	if s.sources == nil {
		return nil, errors.New("no document source configured")
	}
	src := s.sources(root)
	if err := src.Validate(ctx); err != nil {
		src.Close()
		return nil, err
	}
	return src, nil
}

// Watch re-ingests created or modified files and removes deleted ones
// until ctx is cancelled.
func (s *IngestService) Watch(ctx context.Context, root string, opts driving.BulkOptions) error {
	root = absPath(root)
	src, err := s.openSource(ctx, root)
	if err != nil {
		return err
	}
	defer src.Close()

	changes, err := src.Watch(ctx)
	if err != nil {
		return domain.NewInfrastructure("watch", err)
	}
	logger.Info("Watching %s", root)

	for change := range changes {
		path := change.Document.URI
		var res domain.IngestResult
		var err error

		if change.Type == domain.ChangeDeleted {
			err = s.removeByURI(ctx, path)
		} else {
			raw := change.Document
			res, err = s.ingestRaw(ctx, &raw, bulkMetadata(opts, root, raw.URI))
		}

		if err != nil {
			logger.Warn("%s %s: %v", change.Type, path, err)
		} else {
			logger.Debug("%s %s", change.Type, path)
		}
		if opts.OnFile != nil {
			opts.OnFile(path, res, err)
		}
	}
	return nil
}

// removeByURI deletes every document ingested from path.
func (s *IngestService) removeByURI(ctx context.Context, path string) error {
	docs, err := s.docStore.ListDocuments(ctx, "")
	if err != nil {
		return domain.NewInfrastructure("store", err)
	}
	for i := range docs {
		if docs[i].URI != path {
			continue
		}
		if err := s.documents.Delete(ctx, docs[i].ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}
