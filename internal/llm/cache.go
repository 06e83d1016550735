package llm

import (
	"context"
	"sync"
)

// CachingEmbedder memoizes embeddings by exact text. One cache belongs to a
// single pipeline run and is dropped with it, so repeated chunks or
// questions within a run are embedded once.
type CachingEmbedder struct {
	inner Embedder

	mu      sync.Mutex
	entries map[string]*Embedding
}

// WithCache wraps an Embedder with a fresh in-memory cache.
func WithCache(e Embedder) *CachingEmbedder {
	return &CachingEmbedder{inner: e, entries: make(map[string]*Embedding)}
}

func (c *CachingEmbedder) Embed(ctx context.Context, text string) (*Embedding, error) {
	c.mu.Lock()
	if emb, ok := c.entries[text]; ok {
		c.mu.Unlock()
		return emb, nil
	}
	c.mu.Unlock()

	emb, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[text] = emb
	c.mu.Unlock()
	return emb, nil
}

func (c *CachingEmbedder) ModelID() string {
	return c.inner.ModelID()
}

// Len returns the number of cached texts.
func (c *CachingEmbedder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
