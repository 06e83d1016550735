// Package config loads quizrag settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizrag/internal/chunker"
	"github.com/abhisek/quizrag/internal/dedup"
	"github.com/abhisek/quizrag/internal/generator"
	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
	"github.com/abhisek/quizrag/internal/pipeline"
	"github.com/abhisek/quizrag/internal/source"
	"github.com/abhisek/quizrag/internal/validator"
)

type ProviderSettings struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type LLM struct {
	Provider string `yaml:"provider"`
	Timeout  string `yaml:"timeout"`

	OpenAI     ProviderSettings `yaml:"openai"`
	Anthropic  ProviderSettings `yaml:"anthropic"`
	Gemini     ProviderSettings `yaml:"gemini"`
	OpenRouter ProviderSettings `yaml:"openrouter"`

	Embedding struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"embedding"`

	Retry struct {
		MaxAttempts int     `yaml:"max_attempts"`
		InitialWait string  `yaml:"initial_wait"`
		MaxWait     string  `yaml:"max_wait"`
		Multiplier  float64 `yaml:"multiplier"`
	} `yaml:"retry"`
}

type Pipeline struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	TopK             int     `yaml:"top_k"`
	Query            string  `yaml:"query"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	DedupThreshold   float64 `yaml:"dedup_threshold"`
	EmbedConcurrency int     `yaml:"embed_concurrency"`

	// Validation is "strict" (four labelled options, answer among them) or
	// "schema" (JSON schema only).
	Validation string `yaml:"validation"`

	// PDFExtractor is "builtin" or "pdftotext" (needs poppler installed).
	PDFExtractor string `yaml:"pdf_extractor"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
}

// Config is the whole file.
type Config struct {
	LLM      LLM      `yaml:"llm"`
	Pipeline Pipeline `yaml:"pipeline"`
	Server   Server   `yaml:"server"`

	// DB is the SQLite event log path. Empty means the default location.
	DB string `yaml:"db"`
}

// Default returns the built-in settings.
func Default() Config {
	var c Config
	lc := llm.DefaultConfig()

	c.LLM.Provider = ""
	c.LLM.Timeout = lc.Timeout.String()
	c.LLM.OpenAI.Model = lc.OpenAI.Model
	c.LLM.Anthropic.Model = lc.Anthropic.Model
	c.LLM.Gemini.Model = lc.Gemini.Model
	c.LLM.OpenRouter.Model = lc.OpenRouter.Model
	c.LLM.Retry.MaxAttempts = lc.Retry.MaxAttempts
	c.LLM.Retry.InitialWait = lc.Retry.InitialWait.String()
	c.LLM.Retry.MaxWait = lc.Retry.MaxWait.String()
	c.LLM.Retry.Multiplier = lc.Retry.Multiplier

	pc := pipeline.DefaultConfig()
	c.Pipeline = Pipeline{
		ChunkSize:        pc.Chunk.ChunkSize,
		ChunkOverlap:     pc.Chunk.ChunkOverlap,
		TopK:             pc.TopK,
		Query:            pc.Query,
		Temperature:      pc.Temperature,
		MaxTokens:        pc.Generator.MaxTokens,
		DedupThreshold:   pc.Dedup.Threshold,
		EmbedConcurrency: pc.EmbedConcurrency,
		Validation:       "strict",
		PDFExtractor:     "builtin",
	}

	c.Server = Server{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		MaxUploadMB:    20,
	}
	return c
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $QUIZRAG_CONFIG; with neither, only defaults and environment
// apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("QUIZRAG_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, mcq.Wrap(mcq.KindConfig, err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, mcq.Wrap(mcq.KindConfig, err, "parse config %s", path)
		}
	}

	if p := os.Getenv("QUIZRAG_DB"); p != "" {
		cfg.DB = p
	}
	return cfg, nil
}

// LLMConfig converts the llm section, overlays QUIZRAG_* variables and
// discovers a credential from the standard provider variables when none is
// configured. A missing credential is a config error.
func (c Config) LLMConfig() (llm.Config, error) {
	lc := llm.DefaultConfig()
	if c.LLM.Provider != "" {
		lc.Provider = c.LLM.Provider
	}
	lc.Timeout = Duration(c.LLM.Timeout, lc.Timeout)

	lc.OpenAI = llm.OpenAIConfig{APIKey: c.LLM.OpenAI.APIKey, Model: or(c.LLM.OpenAI.Model, lc.OpenAI.Model), BaseURL: c.LLM.OpenAI.BaseURL}
	lc.Anthropic = llm.AnthropicConfig{APIKey: c.LLM.Anthropic.APIKey, Model: or(c.LLM.Anthropic.Model, lc.Anthropic.Model)}
	lc.Gemini = llm.GeminiConfig{APIKey: c.LLM.Gemini.APIKey, Model: or(c.LLM.Gemini.Model, lc.Gemini.Model)}
	lc.OpenRouter = llm.OpenRouterConfig{APIKey: c.LLM.OpenRouter.APIKey, Model: or(c.LLM.OpenRouter.Model, lc.OpenRouter.Model), BaseURL: c.LLM.OpenRouter.BaseURL}
	lc.Embedding = llm.EmbeddingConfig{Provider: c.LLM.Embedding.Provider, Model: c.LLM.Embedding.Model}

	if c.LLM.Retry.MaxAttempts > 0 {
		lc.Retry.MaxAttempts = c.LLM.Retry.MaxAttempts
	}
	if c.LLM.Retry.Multiplier > 0 {
		lc.Retry.Multiplier = c.LLM.Retry.Multiplier
	}
	lc.Retry.InitialWait = Duration(c.LLM.Retry.InitialWait, lc.Retry.InitialWait)
	lc.Retry.MaxWait = Duration(c.LLM.Retry.MaxWait, lc.Retry.MaxWait)

	explicit := c.LLM.Provider != "" || os.Getenv("QUIZRAG_LLM_PROVIDER") != ""
	lc = llm.ApplyEnv(lc)

	if explicit {
		if err := lc.Validate(); err != nil {
			return lc, mcq.Wrap(mcq.KindConfig, err, "Invalid LLM configuration")
		}
		return lc, nil
	}

	lc, ok := llm.Discover(lc)
	if !ok {
		return lc, mcq.NewError(mcq.KindConfig,
			"No API key found. Set OPENAI_API_KEY (or GEMINI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY), or choose a provider in the config file.")
	}
	if err := lc.Validate(); err != nil {
		return lc, mcq.Wrap(mcq.KindConfig, err, "Invalid LLM configuration")
	}
	return lc, nil
}

// PipelineConfig converts the pipeline section.
func (c Config) PipelineConfig() (pipeline.Config, error) {
	p := c.Pipeline

	vcfg := validator.DefaultConfig()
	switch p.Validation {
	case "", "strict":
	case "schema":
		vcfg = validator.SchemaOnlyConfig()
	default:
		return pipeline.Config{}, mcq.NewError(mcq.KindConfig,
			fmt.Sprintf("Unknown validation mode %q; use \"strict\" or \"schema\".", p.Validation))
	}

	gcfg := generator.DefaultConfig()
	if p.MaxTokens > 0 {
		gcfg.MaxTokens = p.MaxTokens
	}
	gcfg.Timeout = Duration(c.LLM.Timeout, gcfg.Timeout)

	return pipeline.Config{
		Chunk: chunker.Config{
			ChunkSize:    p.ChunkSize,
			ChunkOverlap: p.ChunkOverlap,
			Separators:   chunker.DefaultSeparators,
		},
		TopK:             p.TopK,
		Query:            or(p.Query, pipeline.DefaultConfig().Query),
		Temperature:      p.Temperature,
		EmbedConcurrency: max(p.EmbedConcurrency, 1),
		Generator:        gcfg,
		Validator:        vcfg,
		Dedup: dedup.Config{
			Threshold:   p.DedupThreshold,
			Concurrency: max(p.EmbedConcurrency, 1),
		},
	}, nil
}

// Loader returns the document loader selected by pdf_extractor.
func (c Config) Loader() (*source.Loader, error) {
	switch c.Pipeline.PDFExtractor {
	case "", "builtin":
		return source.NewLoader(), nil
	case "pdftotext":
		return &source.Loader{PDF: source.PDFToText}, nil
	default:
		return nil, mcq.NewError(mcq.KindConfig,
			fmt.Sprintf("Unknown PDF extractor %q; use \"builtin\" or \"pdftotext\".", c.Pipeline.PDFExtractor))
	}
}

// Duration parses raw or returns fallback when raw is empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
