package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a completion Provider from configuration, wrapped
// with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, sink EventSink) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	logged := WithLogging(base, cfg.Provider, sink)
	return WithRetry(logged, cfg.Retry), nil
}

// NewEmbedder creates an Embedder from configuration, wrapped with retry
// and logging middleware.
func NewEmbedder(ctx context.Context, cfg Config, sink EventSink) (Embedder, error) {
	name := cfg.EmbeddingProvider()

	var base Embedder
	var err error

	switch name {
	case "openai":
		base, err = NewOpenAIEmbedder(cfg.OpenAI, cfg.Embedding.Model)
	case "openrouter":
		base, err = NewOpenRouterEmbedder(cfg.OpenRouter, cfg.Embedding.Model)
	case "gemini":
		base, err = NewGeminiEmbedder(ctx, cfg.Gemini, cfg.Embedding.Model)
	case "mock":
		return NewMockEmbedder(), nil
	case "anthropic":
		return nil, fmt.Errorf("anthropic does not provide an embedding API")
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s embedder: %w", name, err)
	}

	logged := WithEmbedLogging(base, name, sink)
	return WithEmbedRetry(logged, cfg.Retry), nil
}
