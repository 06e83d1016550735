package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizrag/internal/llm"
)

// LLMEvent is a stored request event.
type LLMEvent struct {
	ID           int
	Timestamp    time.Time
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

// QueryOpts filters QueryLLMEvents. Zero fields do not filter.
type QueryOpts struct {
	Limit   int
	Kind    string
	Purpose string
	RunID   string
}

// PurposeUsage aggregates events sharing a purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// ModelUsage aggregates events sharing a model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo reads and writes LLM request events. It implements
// llm.EventSink.
type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ llm.EventSink = (*EventRepo)(nil)

func (r *EventRepo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// AppendLLMRequest stores e.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, e llm.RequestEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO llm_request_events
  (created_at, run_id, kind, provider, model, purpose, input_tokens, output_tokens,
   latency_ms, success, error_message, request_body, response_body)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.clock().UnixMilli(), e.RunID, e.Kind, e.Provider, e.Model, e.Purpose,
		e.InputTokens, e.OutputTokens, e.LatencyMs, e.Success,
		e.ErrorMessage, e.RequestBody, e.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("insert llm event: %w", err)
	}
	return nil
}

const eventColumns = `id, created_at, run_id, kind, provider, model, purpose, input_tokens,
  output_tokens, latency_ms, success, error_message, request_body, response_body`

// QueryLLMEvents returns events newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	var (
		where []string
		args  []any
	)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Purpose != "" {
		where = append(where, "purpose = ?")
		args = append(args, opts.Purpose)
	}
	if opts.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, opts.RunID)
	}

	q := "SELECT " + eventColumns + " FROM llm_request_events"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetLLMEvent returns the event with id, or nil if there is none.
func (r *EventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM llm_request_events WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// LLMUsageByPurpose aggregates token usage per purpose, busiest first.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT purpose, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
       COALESCE(AVG(latency_ms), 0)
FROM llm_request_events
GROUP BY purpose
ORDER BY COUNT(*) DESC, purpose`)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var (
			u   PurposeUsage
			avg float64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.AvgLatencyMs = int(avg + 0.5)
		out = append(out, u)
	}
	return out, rows.Err()
}

// LLMUsageByModel aggregates token usage per model.
func (r *EventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT model, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
FROM llm_request_events
GROUP BY model
ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// RunSummary totals the requests made by one pipeline run.
type RunSummary struct {
	RunID        string
	Started      time.Time
	Completions  int
	Embeddings   int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// Runs summarizes tagged pipeline runs, most recent first. A limit of zero
// returns every run.
func (r *EventRepo) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	q := `
SELECT run_id, MIN(created_at),
       SUM(CASE WHEN kind = 'completion' THEN 1 ELSE 0 END),
       SUM(CASE WHEN kind = 'embedding' THEN 1 ELSE 0 END),
       SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
       COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
FROM llm_request_events
WHERE run_id != ''
GROUP BY run_id
ORDER BY MAX(id) DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s       RunSummary
			started int64
		)
		if err := rows.Scan(&s.RunID, &started, &s.Completions, &s.Embeddings, &s.Failures,
			&s.InputTokens, &s.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Started = time.UnixMilli(started)
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*LLMEvent, error) {
	var (
		e       LLMEvent
		created int64
	)
	err := s.Scan(&e.ID, &created, &e.RunID, &e.Kind, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan llm event: %w", err)
	}
	e.Timestamp = time.UnixMilli(created)
	return &e, nil
}
