package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []RequestEvent
	err    error
}

func (s *recordingSink) AppendLLMRequest(_ context.Context, e RequestEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"mcqs":[]}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 4},
	})
	sink := &recordingSink{}
	p := WithLogging(mock, "mock", sink)

	ctx := WithRunID(WithPurpose(context.Background(), PurposeGenerate), "run-1")
	_, err := p.Generate(ctx, Request{
		System:   "be terse",
		Messages: []Message{{Role: RoleUser, Content: "make questions"}},
	})
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, KindCompletion, e.Kind)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, PurposeGenerate, e.Purpose)
	assert.Equal(t, "mock", e.Provider)
	assert.Equal(t, 12, e.InputTokens)
	assert.Equal(t, 4, e.OutputTokens)
	assert.True(t, e.Success)
	assert.Contains(t, e.RequestBody, "[system]\nbe terse")
	assert.Contains(t, e.RequestBody, "[user]\nmake questions")
	assert.Equal(t, `{"mcqs":[]}`, e.ResponseBody)
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	sink := &recordingSink{}
	p := WithLogging(mock, "mock", sink)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, sink.events, 1)
	assert.False(t, sink.events[0].Success)
	assert.Contains(t, sink.events[0].ErrorMessage, "down")
	assert.Equal(t, "unknown", sink.events[0].Purpose)
}

func TestLoggingProvider_SinkErrorDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"ok"`)})
	sink := &recordingSink{err: errors.New("disk full")}
	p := WithLogging(mock, "mock", sink)

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, resp.Text())
}

func TestLoggingEmbedder_RecordsDimensionOnly(t *testing.T) {
	sink := &recordingSink{}
	e := WithEmbedLogging(NewMockEmbedder(), "mock", sink)

	ctx := WithPurpose(context.Background(), PurposeIndexEmbed)
	emb, err := e.Embed(ctx, "chlorophyll absorbs light")
	require.NoError(t, err)
	require.Len(t, emb.Vector, 64)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, KindEmbedding, ev.Kind)
	assert.Equal(t, PurposeIndexEmbed, ev.Purpose)
	assert.Equal(t, "chlorophyll absorbs light", ev.RequestBody)
	assert.Equal(t, "[64-dim vector]", ev.ResponseBody)
	assert.Equal(t, "mock-embed", ev.Model)
}

func TestSerializeRequest_Layout(t *testing.T) {
	out := serializeRequest(Request{
		System:      "be terse",
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	assert.True(t, strings.HasPrefix(out, "[system]\nbe terse\n\n[user]\nhi\n\n"))
	assert.True(t, strings.HasSuffix(out, "[params] max_tokens=2048 temperature=0.7\n"))
}
