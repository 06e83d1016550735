package llm

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing and the "mock"
// provider setting.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockEmbedder is a deterministic Embedder for testing. Texts listed in
// Vectors get that vector; everything else gets a hashed bag-of-words
// vector, so identical texts embed identically and texts sharing words
// score higher than unrelated ones. Components are never negative.
type MockEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Dim     int

	// FailOn makes Embed return Err for texts containing this substring.
	FailOn string
	Err    error

	Calls []string
}

// NewMockEmbedder returns a MockEmbedder with 64 dimensions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Vectors: make(map[string][]float32), Dim: 64}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) (*Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, text)

	if m.FailOn != "" && strings.Contains(text, m.FailOn) {
		err := m.Err
		if err == nil {
			err = &ErrProviderUnavailable{}
		}
		return nil, err
	}

	if v, ok := m.Vectors[text]; ok {
		return &Embedding{Vector: v, Model: "mock-embed"}, nil
	}
	return &Embedding{Vector: bagOfWords(text, m.Dim), Model: "mock-embed"}, nil
}

// ModelID returns "mock-embed".
func (m *MockEmbedder) ModelID() string {
	return "mock-embed"
}

// CallCount returns the number of Embed calls made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func bagOfWords(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 64
	}
	v := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(dim)]++
	}
	return v
}
