// Package pipeline wires the RAG stages into a single generation run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizrag/internal/chunker"
	"github.com/abhisek/quizrag/internal/dedup"
	"github.com/abhisek/quizrag/internal/generator"
	"github.com/abhisek/quizrag/internal/index"
	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
	"github.com/abhisek/quizrag/internal/prompt"
	"github.com/abhisek/quizrag/internal/source"
	"github.com/abhisek/quizrag/internal/validator"
)

// Config holds the tunables of a run.
type Config struct {
	Chunk chunker.Config

	// TopK is how many chunks feed the prompt.
	TopK int

	// Query is the fixed retrieval objective.
	Query string

	Temperature float64

	// EmbedConcurrency bounds parallel embedding calls while indexing and
	// deduplicating.
	EmbedConcurrency int

	Generator generator.Config
	Validator validator.Config
	Dedup     dedup.Config
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		Chunk:            chunker.DefaultConfig(),
		TopK:             index.DefaultTopK,
		Query:            index.DefaultQuery,
		Temperature:      generator.DefaultTemperature,
		EmbedConcurrency: 4,
		Generator:        generator.DefaultConfig(),
		Validator:        validator.DefaultConfig(),
		Dedup:            dedup.DefaultConfig(),
	}
}

// Input is one generation request. When File is set it wins over Text.
type Input struct {
	Text         string
	File         string
	NumQuestions int
	Difficulty   prompt.Difficulty
	BloomLevel   prompt.BloomLevel
}

// Pipeline runs load, index, retrieve, prompt, generate, validate and
// dedupe in order. A Pipeline holds no per-run state and can serve
// concurrent runs.
type Pipeline struct {
	provider llm.Provider
	embedder llm.Embedder
	loader   *source.Loader
	splitter *chunker.Splitter
	config   Config
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoader replaces the document loader.
func WithLoader(l *source.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithLogger sets the logger for stage progress.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New returns a Pipeline. A nil provider or embedder means no credential
// was configured, which is a config error.
func New(provider llm.Provider, embedder llm.Embedder, cfg Config, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, mcq.NewError(mcq.KindConfig, "No completion provider configured. Set an API key such as OPENAI_API_KEY.")
	}
	if embedder == nil {
		return nil, mcq.NewError(mcq.KindConfig, "No embedding provider configured. Set an API key such as OPENAI_API_KEY.")
	}

	splitter, err := chunker.New(cfg.Chunk)
	if err != nil {
		return nil, mcq.Wrap(mcq.KindConfig, err, "Invalid chunking settings")
	}

	p := &Pipeline{
		provider: provider,
		embedder: embedder,
		loader:   source.NewLoader(),
		splitter: splitter,
		config:   cfg,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Run executes one generation request and returns the deduplicated MCQs in
// generation order. Any stage failure aborts the run with a *mcq.Error
// naming that stage; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, in Input) ([]mcq.MCQ, error) {
	runID := llm.RunIDFrom(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = llm.WithRunID(ctx, runID)
	}
	log := p.logger.With("run_id", runID)
	start := time.Now()

	text, err := source.SelectContext(ctx, p.loader, in.File, in.Text)
	if err != nil {
		return nil, p.fail(log, err)
	}
	log.DebugContext(ctx, "document loaded", "runes", len([]rune(text)), "file", in.File)

	if err := prompt.CheckParams(in.NumQuestions, in.Difficulty); err != nil {
		return nil, p.fail(log, err)
	}

	chunks := p.splitter.Split(text)
	log.DebugContext(ctx, "text split", "chunks", len(chunks))

	// One cache per run: a question that repeats a chunk verbatim, or the
	// same chunk twice, is embedded once.
	embedder := llm.WithCache(p.embedder)

	ix := index.New(embedder, index.WithConcurrency(p.config.EmbedConcurrency), index.WithLogger(log))
	store, err := ix.Build(ctx, chunks)
	if err != nil {
		return nil, p.fail(log, err)
	}

	retrieved, err := ix.Retrieve(ctx, store, p.config.Query, p.config.TopK)
	if err != nil {
		return nil, p.fail(log, err)
	}

	rendered, err := prompt.Build(prompt.JoinChunks(retrieved), in.NumQuestions, in.Difficulty, in.BloomLevel)
	if err != nil {
		return nil, p.fail(log, err)
	}

	raw, err := generator.New(p.provider, p.config.Generator).Generate(ctx, rendered, p.config.Temperature)
	if err != nil {
		return nil, p.fail(log, err)
	}
	log.DebugContext(ctx, "completion received", "bytes", len(raw), "model", p.provider.ModelID())

	list, err := validator.NewParser(p.config.Validator).Parse(raw)
	if err != nil {
		return nil, p.fail(log, err)
	}

	dcfg := p.config.Dedup
	if dcfg.Concurrency <= 0 {
		dcfg.Concurrency = p.config.EmbedConcurrency
	}
	unique, err := dedup.New(embedder, dcfg).WithLogger(log).Dedupe(ctx, list.MCQs)
	if err != nil {
		return nil, p.fail(log, err)
	}

	log.DebugContext(ctx, "pipeline finished",
		"generated", len(list.MCQs),
		"unique", len(unique),
		"embeddings", embedder.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return unique, nil
}

// fail logs err with the stage it is attributed to.
func (p *Pipeline) fail(log *slog.Logger, err error) error {
	var e *mcq.Error
	if errors.As(err, &e) {
		log.Debug("pipeline failed", "stage", e.Stage(), "kind", string(e.Kind), "error", err)
		return err
	}
	log.Debug("pipeline failed", "error", err)
	return err
}
