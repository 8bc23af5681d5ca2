// Package chunker splits document text into overlapping fixed-size windows.
package chunker

import (
	"context"
	"unicode"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Name is the processor name used in pipeline configuration.
const Name = "chunker"

// Processor splits document content into overlapping windows of runes.
// It implements the PostProcessor interface.
//
// Window i covers runes [i*step, i*step+size) clipped to the text,
// where step = size - overlap. Chunking stops once the next offset
// reaches the end of the text, so empty text yields no chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the number of characters shared by neighbouring windows.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a chunker with W=900, O=150 unless overridden.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave a positive step.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Chunk IDs are "<doc_id>-<ordinal>" and each chunk carries a copy of the
// document metadata plus chunk_index.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	windows := p.Split(doc.Content)
	if len(windows) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for i, text := range windows {
		meta := make(map[string]any, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[domain.MetaChunkIndex] = int64(i)

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Content:    text,
			Position:   i,
			Metadata:   meta,
		})
	}

	return chunks, nil
}

// Split returns the text windows without building chunk records. A
// window that would start in trailing whitespace is not emitted, so
// blank text yields no windows.
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)

	last := n - 1
	for last >= 0 && unicode.IsSpace(runes[last]) {
		last--
	}
	if last < 0 {
		return nil
	}

	step := p.chunkSize - p.overlap
	out := make([]string, 0, n/step+1)

	for offset := 0; offset <= last; offset += step {
		end := offset + p.chunkSize
		if end > n {
			end = n
		}
		out = append(out, string(runes[offset:end]))
	}

	return out
}
