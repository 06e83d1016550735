// Package index embeds chunks into a vector store and retrieves the most
// relevant ones for a query.
package index

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
)

// DefaultQuery is the fixed retrieval objective: pull the most
// question-worthy regions of the document.
const DefaultQuery = "Generate high-quality MCQs"

// DefaultTopK is the number of chunks retrieved when k is not positive.
const DefaultTopK = 5

// Indexer builds and queries vector stores through an Embedder.
type Indexer struct {
	embedder    llm.Embedder
	concurrency int
	newStore    func() Store
	logger      *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithConcurrency bounds parallel embedding calls during Build.
func WithConcurrency(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.concurrency = n
		}
	}
}

// WithStore replaces the in-memory store factory.
func WithStore(fn func() Store) Option {
	return func(ix *Indexer) { ix.newStore = fn }
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// New returns an Indexer using embedder.
func New(embedder llm.Embedder, opts ...Option) *Indexer {
	ix := &Indexer{
		embedder:    embedder,
		concurrency: 4,
		newStore:    func() Store { return NewMemoryStore() },
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Build embeds every chunk and returns a fresh store holding them in chunk
// order. Any embedding failure aborts the build.
func (ix *Indexer) Build(ctx context.Context, chunks []string) (Store, error) {
	if len(chunks) == 0 {
		return nil, mcq.NewError(mcq.KindIndexBuild, "Text splitting resulted in empty chunks.")
	}
	if ix.embedder == nil {
		return nil, mcq.Wrap(mcq.KindIndexBuild, errors.New("no embedder configured"), "Failed to create vector store")
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeIndexEmbed)
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			emb, err := ix.embedder.Embed(gctx, chunk)
			if err != nil {
				return err
			}
			vectors[i] = emb.Vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, mcq.Wrap(mcq.KindIndexBuild, err, "Failed to create vector store")
	}

	store := ix.newStore()
	for i, chunk := range chunks {
		if err := store.Add(chunk, vectors[i]); err != nil {
			return nil, mcq.Wrap(mcq.KindIndexBuild, err, "Failed to create vector store")
		}
	}

	ix.logger.DebugContext(ctx, "vector store built", "chunks", store.Len(), "model", ix.embedder.ModelID())
	return store, nil
}

// Retrieve embeds query and returns the text of the k most similar chunks,
// most similar first. A non-positive k means DefaultTopK.
func (ix *Indexer) Retrieve(ctx context.Context, store Store, query string, k int) ([]string, error) {
	if store == nil {
		return nil, mcq.Wrap(mcq.KindIndexQuery, errors.New("vector store is nil"), "Failed to retrieve relevant chunks")
	}
	if k <= 0 {
		k = DefaultTopK
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQueryEmbed)
	emb, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, mcq.Wrap(mcq.KindIndexQuery, err, "Failed to retrieve relevant chunks")
	}

	matches, err := store.Search(emb.Vector, k)
	if err != nil {
		return nil, mcq.Wrap(mcq.KindIndexQuery, err, "Failed to retrieve relevant chunks")
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	ix.logger.DebugContext(ctx, "retrieved chunks", "k", k, "returned", len(texts))
	return texts, nil
}
