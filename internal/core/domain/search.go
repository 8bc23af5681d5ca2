package domain

// RetrievedChunk is one hit returned by retrieval.
type RetrievedChunk struct {
	// Chunk is the matching chunk.
	Chunk Chunk

	// Document is the parent document, used for type and filename attribution.
	Document Document

	// Score is the fused relevance score. Higher is better.
	Score float64

	// Rank is the 1-based position in the result list.
	Rank int
}
