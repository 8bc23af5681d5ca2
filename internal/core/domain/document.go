package domain

import (
	"fmt"
	"time"
)

// DefaultCollection is the collection every document is stored under
// unless the caller names another one.
const DefaultCollection = "documents"

// Declared document types used by the bulk ingestion conventions.
// Any other string is accepted as a type; these are the well-known ones.
const (
	TypeJobPost     = "job_post"
	TypeApplication = "application"
	TypeMarkdown    = "markdown"
	TypeFile        = "file"
)

// Well-known metadata keys.
const (
	MetaFilename   = "filename"
	MetaType       = "type"
	MetaDocID      = "doc_id"
	MetaSourceExt  = "source_ext"
	MetaChunkIndex = "chunk_index"
	MetaMIMEType   = "mime_type"
	MetaFormat     = "format"
)

// Document represents one ingested unit: a file, or a manually submitted text.
type Document struct {
	// ID is the stable document identifier (doc_id).
	ID string

	// Collection groups documents in storage. Defaults to DefaultCollection.
	Collection string

	// URI is the source path. Empty for manually submitted text.
	URI string

	// Title is the filename or caller-supplied title.
	Title string

	// Type is the declared document type (job_post, application, ...).
	Type string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata is the flat, scalar-valued metadata mapping.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last ingested.
	UpdatedAt time.Time
}

// Filename returns the document's filename metadata, falling back to its title.
func (d *Document) Filename() string {
	if v, ok := d.Metadata[MetaFilename].(string); ok && v != "" {
		return v
	}
	return d.Title
}

// Chunk is a contiguous slice of a document's text.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is "<doc_id>-<ordinal>", which keeps re-ingestion idempotent per chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata is inherited from the document plus chunk_index.
	Metadata map[string]any

	// Seq is the insertion sequence assigned by the document store; zero
	// until the chunk is saved. Retrieval breaks score ties with it.
	Seq int64
}

// ChunkID builds the storage identifier for a document chunk.
func ChunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s-%d", docID, ordinal)
}
