package llm

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider wraps OpenAIProvider with OpenRouter-specific defaults.
// OpenRouter exposes an OpenAI-compatible API, so the underlying SDK is reused.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ErrMissingAPIKey{Provider: "openrouter"}
	}

	inner, err := NewOpenAIProvider(openRouterAsOpenAI(cfg))
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// NewOpenRouterEmbedder targets OpenRouter's OpenAI-compatible embeddings
// endpoint. An empty model selects openai/text-embedding-3-small.
func NewOpenRouterEmbedder(cfg OpenRouterConfig, model string) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, &ErrMissingAPIKey{Provider: "openrouter"}
	}
	if model == "" {
		model = "openai/" + defaultOpenAIEmbeddingModel
	}
	return NewOpenAIEmbedder(openRouterAsOpenAI(cfg), model)
}

func openRouterAsOpenAI(cfg OpenRouterConfig) OpenAIConfig {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}
}
