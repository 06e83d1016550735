// Package generator sends the rendered prompt to a completion provider and
// returns the untrusted model output.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
)

// DefaultTemperature is the creativity setting used when callers have no
// preference.
const DefaultTemperature = 0.7

// Config controls a Generator.
type Config struct {
	// MaxTokens is the token budget for the response.
	MaxTokens int

	// Timeout bounds one Generate call including provider retries. Zero
	// means no extra deadline.
	Timeout time.Duration
}

// DefaultConfig returns a 4096-token budget and a 60s timeout.
func DefaultConfig() Config {
	return Config{MaxTokens: 4096, Timeout: 60 * time.Second}
}

// Generator produces raw MCQ JSON text.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New returns a Generator backed by provider.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// Generate sends prompt as a single user message and returns the trimmed
// completion text. Every failure, including a missing provider, is a
// generation error.
func (g *Generator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if g.provider == nil {
		return "", mcq.Wrap(mcq.KindGeneration, errors.New("no completion provider configured"), "MCQ generation failed")
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeGenerate)
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", mcq.Wrap(mcq.KindGeneration, err, "MCQ generation failed")
	}

	return strings.TrimSpace(resp.Text()), nil
}

// ModelID returns the provider's model, or "" when there is no provider.
func (g *Generator) ModelID() string {
	if g.provider == nil {
		return ""
	}
	return g.provider.ModelID()
}
