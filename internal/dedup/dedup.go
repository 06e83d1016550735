// Package dedup removes near-duplicate questions by embedding similarity.
package dedup

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizrag/internal/index"
	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
)

// DefaultThreshold is the cosine similarity at or above which a question
// counts as a duplicate of one already kept.
const DefaultThreshold = 0.85

// Config controls a Deduplicator.
type Config struct {
	Threshold float64

	// Concurrency bounds parallel embedding calls.
	Concurrency int
}

// DefaultConfig returns threshold 0.85 with four embedding workers.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, Concurrency: 4}
}

// Deduplicator filters MCQs whose question text is semantically close to an
// earlier one.
type Deduplicator struct {
	embedder llm.Embedder
	config   Config
	logger   *slog.Logger
}

// New returns a Deduplicator using embedder.
func New(embedder llm.Embedder, cfg Config) *Deduplicator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Deduplicator{embedder: embedder, config: cfg, logger: slog.Default()}
}

// WithLogger returns a copy of d that logs to l.
func (d *Deduplicator) WithLogger(l *slog.Logger) *Deduplicator {
	c := *d
	c.logger = l
	return &c
}

// Dedupe returns the sublist of mcqs that survive a greedy pass: the first
// question is always kept, and each later one is kept only if its maximum
// similarity to every kept question is below the threshold. Input order is
// preserved. On any embedding failure no MCQs are returned.
func (d *Deduplicator) Dedupe(ctx context.Context, mcqs []mcq.MCQ) ([]mcq.MCQ, error) {
	if len(mcqs) == 0 {
		return []mcq.MCQ{}, nil
	}
	if d.embedder == nil {
		return nil, mcq.Wrap(mcq.KindDeduplication, errors.New("no embedder configured"), "Failed during MCQ deduplication")
	}

	vectors, err := d.embed(llm.WithPurpose(ctx, llm.PurposeDedupEmbed), mcqs)
	if err != nil {
		return nil, mcq.Wrap(mcq.KindDeduplication, err, "Failed during MCQ deduplication")
	}

	keep := Greedy(vectors, d.config.Threshold)
	out := make([]mcq.MCQ, 0, len(keep))
	for _, i := range keep {
		out = append(out, mcqs[i])
	}

	d.logger.DebugContext(ctx, "deduplicated MCQs", "in", len(mcqs), "kept", len(out), "threshold", d.config.Threshold)
	return out, nil
}

func (d *Deduplicator) embed(ctx context.Context, mcqs []mcq.MCQ) ([][]float32, error) {
	vectors := make([][]float32, len(mcqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Concurrency)
	for i, q := range mcqs {
		g.Go(func() error {
			emb, err := d.embedder.Embed(gctx, q.Question)
			if err != nil {
				return err
			}
			vectors[i] = emb.Vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Greedy returns the indices of vectors kept by the first-seen-wins pass,
// in ascending order.
func Greedy(vectors [][]float32, threshold float64) []int {
	if len(vectors) == 0 {
		return nil
	}

	keep := []int{0}
	for i := 1; i < len(vectors); i++ {
		maxSim := -1.0
		for _, k := range keep {
			if s := index.Cosine(vectors[i], vectors[k]); s > maxSim {
				maxSim = s
			}
		}
		if maxSim < threshold {
			keep = append(keep, i)
		}
	}
	return keep
}
