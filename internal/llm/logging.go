package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Request kinds recorded on events.
const (
	KindCompletion = "completion"
	KindEmbedding  = "embedding"
)

// RequestEvent is one recorded provider call.
type RequestEvent struct {
	RunID        string
	Kind         string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventSink receives request events. Implementations must be safe for
// concurrent use; embeddings are logged from parallel workers.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, e RequestEvent) error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) AppendLLMRequest(context.Context, RequestEvent) error { return nil }

// LoggingProvider is a decorator that records every completion request.
type LoggingProvider struct {
	inner    Provider
	provider string
	sink     EventSink
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, providerName string, sink EventSink) Provider {
	return &LoggingProvider{inner: p, provider: providerName, sink: sink}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	e := RequestEvent{
		RunID:       RunIDFrom(ctx),
		Kind:        KindCompletion,
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		e.InputTokens = resp.Usage.InputTokens
		e.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			e.Model = resp.Model
		}
		e.ResponseBody = string(resp.Content)
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}

	appendEvent(ctx, l.sink, e)
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// LoggingEmbedder records every embedding request. Vectors are not stored,
// only their dimension.
type LoggingEmbedder struct {
	inner    Embedder
	provider string
	sink     EventSink
}

// WithEmbedLogging wraps an Embedder with event logging.
func WithEmbedLogging(e Embedder, providerName string, sink EventSink) Embedder {
	return &LoggingEmbedder{inner: e, provider: providerName, sink: sink}
}

func (l *LoggingEmbedder) Embed(ctx context.Context, text string) (*Embedding, error) {
	start := time.Now()

	emb, err := l.inner.Embed(ctx, text)

	e := RequestEvent{
		RunID:       RunIDFrom(ctx),
		Kind:        KindEmbedding,
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: text,
	}
	if emb != nil {
		e.InputTokens = emb.Usage.InputTokens
		if emb.Model != "" {
			e.Model = emb.Model
		}
		e.ResponseBody = fmt.Sprintf("[%d-dim vector]", len(emb.Vector))
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}

	appendEvent(ctx, l.sink, e)
	return emb, err
}

func (l *LoggingEmbedder) ModelID() string {
	return l.inner.ModelID()
}

// appendEvent logs the event but never fails the request.
func appendEvent(ctx context.Context, sink EventSink, e RequestEvent) {
	if sink == nil {
		return
	}
	if err := sink.AppendLLMRequest(ctx, e); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request event: %v\n", err)
	}
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "[params] max_tokens=%d temperature=%g\n", req.MaxTokens, req.Temperature)

	return b.String()
}
