package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
	"github.com/custodia-labs/qpro/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents and keeps the search
// indexes in step with the document store.
type DocumentService struct {
	docStore    driven.DocumentStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex
	resolvePath func(uri string) string
	open        func(target string) error
}

// NewDocumentService creates a new document service. The search and
// vector indexes are optional.
func NewDocumentService(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		searchIndex: searchIndex,
		vectorIndex: vectorIndex,
		resolvePath: strings.TrimSpace,
		open:        openPath,
	}
}

// SetPathResolver sets how a stored URI becomes a local path for Open.
func (s *DocumentService) SetPathResolver(resolve func(uri string) string) {
	if resolve != nil {
		s.resolvePath = resolve
	}
}

// List returns all documents in a collection.
func (s *DocumentService) List(ctx context.Context, collection string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, collection)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// GetContent returns the document's extracted text. Documents stored
// without full text are rebuilt from their chunks, dropping the overlap
// each chunk shares with its predecessor.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.Content != "" {
		return doc.Content, nil
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return "", err
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})

	var b strings.Builder
	prev := ""
	for _, c := range chunks {
		b.WriteString(c.Content[overlapLen(prev, c.Content):])
		prev = c.Content
	}
	return b.String(), nil
}

// overlapLen returns the byte length of the longest suffix of prev that
// is a prefix of next.
func overlapLen(prev, next string) int {
	n := min(len(prev), len(next))
	for ; n > 0; n-- {
		if strings.HasSuffix(prev, next[:n]) {
			return n
		}
	}
	return 0
}

// GetDetails returns document metadata flattened for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunkCount := 0
	if chunks, err := s.docStore.GetChunks(ctx, documentID); err == nil {
		chunkCount = len(chunks)
	}

	metadata := make(map[string]string, len(doc.Metadata))
	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	return &driving.DocumentDetails{
		ID:         doc.ID,
		Collection: doc.Collection,
		Type:       doc.Type,
		Title:      doc.Title,
		URI:        doc.URI,
		ChunkCount: chunkCount,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		Metadata:   metadata,
	}, nil
}

// Delete removes a document. Index entries go first so a failure leaves
// the document visible and the delete can be retried.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
			return err
		}
	}

	if err := s.unindex(ctx, chunks); err != nil {
		return err
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return domain.NewInfrastructure("store", err)
	}

	logger.Debug("Deleted document %s (%d chunks)", documentID, len(chunks))
	return nil
}

// unindex removes chunks from the keyword and vector indexes.
func (s *DocumentService) unindex(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if s.searchIndex != nil {
			if err := s.searchIndex.Delete(ctx, c.ID); err != nil {
				return domain.NewInfrastructure("index", err)
			}
		}
		if s.vectorIndex != nil {
			if err := s.vectorIndex.Delete(ctx, c.ID); err != nil {
				return domain.NewInfrastructure("vectors", err)
			}
		}
	}
	return nil
}

// Open opens the document's source file in the default application.
func (s *DocumentService) Open(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	target := s.resolvePath(doc.URI)
	if target == "" {
		return domain.NewValidation(documentID, errors.New("document has no source file"))
	}
	return s.open(target)
}

// openPath opens a path using the system default handler.
func openPath(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
