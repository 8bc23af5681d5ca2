package driven

import "context"

// EmbeddingService turns text into vectors for the VectorIndex. Without one,
// retrieval runs on keywords alone.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch keeps output order aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length every call returns.
	Dimensions() int
	ModelName() string

	// Ping is a cheap reachability check used when saving settings.
	Ping(ctx context.Context) error
	Close() error
}
