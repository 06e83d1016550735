package llm

import "context"

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) (*Embedding, error)

	// ModelID returns the embedding model identifier.
	ModelID() string
}

// Embedding is one embedding vector plus accounting.
type Embedding struct {
	Vector []float32
	Usage  Usage
	Model  string
}
