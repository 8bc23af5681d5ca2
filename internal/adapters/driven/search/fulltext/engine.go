// Package fulltext provides BM25 keyword search over chunks using bleve.
package fulltext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

// Ensure Engine implements the interfaces.
var (
	_ driven.SearchEngine = (*Engine)(nil)
	_ driven.TextAnalyzer = (*Engine)(nil)
)

// chunkDocument is the indexed form of a chunk.
type chunkDocument struct {
	Content    string  `json:"content"`
	DocumentID string  `json:"doc_id"`
	Type       string  `json:"type"`
	Filename   string  `json:"filename"`
	Seq        float64 `json:"seq"`
}

// Engine is a bleve index of chunk text.
type Engine struct {
	mu      sync.RWMutex
	index   bleve.Index
	mapping *mapping.IndexMappingImpl
	path    string
}

// New opens the index at path, creating it if absent. An empty path
// creates an in-memory index.
func New(path string) (*Engine, error) {
	m := buildIndexMapping()

	var index bleve.Index
	var err error
	switch {
	case path == "":
		index, err = bleve.NewMemOnly(m)
	case exists(path):
		index, err = bleve.Open(path)
	default:
		index, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	return &Engine{index: index, mapping: m, path: path}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	chunkMapping := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false

	keyword := bleve.NewKeywordFieldMapping()

	chunkMapping.AddFieldMappingsAt("content", text)
	chunkMapping.AddFieldMappingsAt("doc_id", keyword)
	chunkMapping.AddFieldMappingsAt("type", keyword)
	chunkMapping.AddFieldMappingsAt("filename", keyword)
	chunkMapping.AddFieldMappingsAt("seq", bleve.NewNumericFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = chunkMapping
	m.DefaultAnalyzer = standard.Name
	return m
}

// Index adds or replaces a chunk.
func (e *Engine) Index(_ context.Context, chunk domain.Chunk) error {
	doc := chunkDocument{
		Content:    chunk.Content,
		DocumentID: chunk.DocumentID,
		Type:       metaString(chunk.Metadata, domain.MetaType),
		Filename:   metaString(chunk.Metadata, domain.MetaFilename),
		Seq:        float64(chunk.Seq),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.index.Index(chunk.ID, doc); err != nil {
		return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// Delete removes a chunk. Unknown IDs are ignored.
func (e *Engine) Delete(_ context.Context, chunkID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.index.Delete(chunkID); err != nil {
		return fmt.Errorf("deleting chunk %s: %w", chunkID, err)
	}
	return nil
}

// Search runs a match query over chunk content. Any query term may match;
// chunks matching more terms score higher. Ties go to the lower seq, so
// the limit never cuts between equal scores by chunk ID.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"seq"}
	req.SortByCustom(search.SortOrder{
		&search.SortScore{Desc: true},
		&search.SortField{Field: "seq", Type: search.SortFieldAsNumber},
	})

	e.mu.RLock()
	res, err := e.index.SearchInContext(ctx, req)
	e.mu.RUnlock()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]driven.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		seq, _ := h.Fields["seq"].(float64)
		hits = append(hits, driven.SearchHit{ChunkID: h.ID, Score: h.Score, Seq: int64(seq)})
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (e *Engine) Count() (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.DocCount()
}

// Terms analyses text with the index's standard analyzer: lower-cased,
// stop words removed.
func (e *Engine) Terms(text string) []string {
	tokens, err := e.mapping.AnalyzeText(standard.Name, []byte(text))
	if err != nil {
		return nil
	}
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// Path returns the on-disk location, or "" for an in-memory index.
func (e *Engine) Path() string {
	return e.path
}

// Close closes the index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Close()
}

func metaString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
