package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCanedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeGenerate)
	if p := PurposeFrom(ctx); p != "mcq-gen" {
		t.Fatalf("expected 'mcq-gen', got %q", p)
	}

	if id := RunIDFrom(ctx); id != "" {
		t.Fatalf("expected empty run ID, got %q", id)
	}
	ctx = WithRunID(ctx, "run-1")
	if id := RunIDFrom(ctx); id != "run-1" {
		t.Fatalf("expected 'run-1', got %q", id)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key but no embedding key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: true,
		},
		{
			name: "anthropic with openai embeddings",
			cfg: Config{
				Provider:  "anthropic",
				Anthropic: AnthropicConfig{APIKey: "sk-test"},
				OpenAI:    OpenAIConfig{APIKey: "sk-oai"},
			},
			wantErr: false,
		},
		{
			name: "anthropic as embedding provider",
			cfg: Config{
				Provider:  "openai",
				OpenAI:    OpenAIConfig{APIKey: "sk-oai"},
				Anthropic: AnthropicConfig{APIKey: "sk-test"},
				Embedding: EmbeddingConfig{Provider: "anthropic"},
			},
			wantErr: true,
		},
		{
			name: "gemini completions with mock embeddings",
			cfg: Config{
				Provider:  "gemini",
				Gemini:    GeminiConfig{APIKey: "g-test"},
				Embedding: EmbeddingConfig{Provider: "mock"},
			},
			wantErr: false,
		},
		{
			name:    "openrouter with key",
			cfg:     Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "or-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"QUIZRAG_LLM_PROVIDER", "QUIZRAG_OPENAI_API_KEY", "QUIZRAG_OPENAI_MODEL",
		"QUIZRAG_EMBEDDING_PROVIDER", "QUIZRAG_EMBEDDING_MODEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDiscover_PrefersOpenAI(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, ok := Discover(DefaultConfig())
	if !ok {
		t.Fatal("expected a provider to be discovered")
	}
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-oai" {
		t.Fatalf("unexpected config: provider=%q key=%q", cfg.Provider, cfg.OpenAI.APIKey)
	}
}

func TestDiscover_AnthropicBorrowsOpenAIEmbeddings(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, ok := Discover(DefaultConfig())
	if !ok {
		t.Fatal("expected anthropic to be discovered")
	}
	if cfg.Provider != "anthropic" {
		t.Fatalf("expected anthropic, got %q", cfg.Provider)
	}
	if cfg.EmbeddingProvider() != "openai" {
		t.Fatalf("expected openai embeddings, got %q", cfg.EmbeddingProvider())
	}
}

func TestDiscover_KeepsExplicitConfig(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-oai")

	in := Config{Provider: "mock"}
	cfg, ok := Discover(in)
	if !ok || cfg.Provider != "mock" {
		t.Fatalf("expected explicit mock config to win, got %q (ok=%v)", cfg.Provider, ok)
	}
}

func TestDiscover_NothingFound(t *testing.T) {
	clearProviderEnv(t)

	if _, ok := Discover(DefaultConfig()); ok {
		t.Fatal("expected no provider without keys")
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("QUIZRAG_LLM_PROVIDER", "openai")
	t.Setenv("QUIZRAG_OPENAI_API_KEY", "sk-env")
	t.Setenv("QUIZRAG_OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("QUIZRAG_EMBEDDING_MODEL", "text-embedding-3-large")

	cfg := ConfigFromEnv()
	if cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("env not applied: %+v", cfg.OpenAI)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Fatalf("expected embedding model override, got %q", cfg.Embedding.Model)
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	a, err := m.Embed(context.Background(), "Plants make glucose")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := m.Embed(context.Background(), "plants MAKE glucose!")
	if len(a.Vector) != 64 {
		t.Fatalf("expected 64 dims, got %d", len(a.Vector))
	}
	for i := range a.Vector {
		if a.Vector[i] != b.Vector[i] {
			t.Fatalf("expected case/punctuation-insensitive vectors, differ at %d", i)
		}
	}
	if m.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", m.CallCount())
	}
}

func TestMockEmbedder_FailOn(t *testing.T) {
	m := NewMockEmbedder()
	m.FailOn = "boom"

	if _, err := m.Embed(context.Background(), "fine"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := m.Embed(context.Background(), "this goes boom")
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
}
