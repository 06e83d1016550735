package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(config)
}

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	return &OpenAIProvider{
		client: newTestOpenAIClient(t, handler),
		model:  "gpt-4o-mini",
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var got openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": "  {\"mcqs\":[]}\n",
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     40,
				"completion_tokens": 25,
				"total_tokens":      65,
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		Messages:    []Message{{Role: RoleUser, Content: "Generate 5 multiple-choice questions."}},
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != `{"mcqs":[]}` {
		t.Fatalf("expected trimmed content, got %q", resp.Text())
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
	if got.Temperature < 0.69 || got.Temperature > 0.71 {
		t.Fatalf("expected temperature 0.7 on the wire, got %v", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected a single user message, got %+v", got.Messages)
	}
}

func TestOpenAIProvider_RateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "tokens",
				"message": "Rate limit exceeded",
				"code":    "rate_limit_exceeded",
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "test"}},
	})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestOpenAIEmbedder_HappyPath(t *testing.T) {
	var got map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2, 0.3}},
			},
			"usage": map[string]any{"prompt_tokens": 7, "total_tokens": 7},
		})
	}

	e := &OpenAIEmbedder{client: newTestOpenAIClient(t, handler), model: "text-embedding-3-small"}
	emb, err := e.Embed(context.Background(), "Photosynthesis converts light energy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.Vector) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(emb.Vector))
	}
	if emb.Usage.InputTokens != 7 {
		t.Fatalf("expected 7 input tokens, got %d", emb.Usage.InputTokens)
	}
	if got["model"] != "text-embedding-3-small" {
		t.Fatalf("expected model on the wire, got %v", got["model"])
	}
}

func TestOpenAIEmbedder_EmptyData(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	}

	e := &OpenAIEmbedder{client: newTestOpenAIClient(t, handler), model: "text-embedding-3-small"}
	_, err := e.Embed(context.Background(), "x")
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "server_error", "message": "upstream"},
		})
	}

	e := &OpenAIEmbedder{client: newTestOpenAIClient(t, handler), model: "text-embedding-3-small"}
	_, err := e.Embed(context.Background(), "x")
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
}

func TestNewOpenAIEmbedder_Defaults(t *testing.T) {
	if _, err := NewOpenAIEmbedder(OpenAIConfig{}, ""); err == nil {
		t.Fatal("expected error without API key")
	}

	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "sk-test"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ModelID() != "text-embedding-3-small" {
		t.Fatalf("expected default model, got %q", e.ModelID())
	}

	or, err := NewOpenRouterEmbedder(OpenRouterConfig{APIKey: "or-test"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if or.ModelID() != "openai/text-embedding-3-small" {
		t.Fatalf("expected openrouter default model, got %q", or.ModelID())
	}
}
