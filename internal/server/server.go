// Package server exposes MCQ generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
	"github.com/abhisek/quizrag/internal/pipeline"
	"github.com/abhisek/quizrag/internal/prompt"
)

// Runner runs one generation request. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) ([]mcq.MCQ, error)
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string

	// MaxUploadBytes caps request bodies, uploads included.
	MaxUploadBytes int64

	// Timeout bounds a whole request.
	Timeout time.Duration

	Logger *slog.Logger
}

// Defaults for unset Options.
const (
	DefaultMaxUploadBytes = 20 << 20
	DefaultTimeout        = 3 * time.Minute
	DefaultNumQuestions   = 5
)

// Server serves the MCQ API.
type Server struct {
	runner Runner
	opts   Options
}

// New returns a Server that hands requests to runner.
func New(runner Runner, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{runner: runner, opts: opts}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Run-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Post("/api/mcqs", s.handleGenerate)
	return r
}

// generateRequest is the JSON body of POST /api/mcqs. Missing fields take
// the same defaults as the original form: five questions at Easy.
type generateRequest struct {
	Text         string `json:"text"`
	NumQuestions *int   `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
	BloomLevel   string `json:"bloom_level"`
}

type generateResponse struct {
	MCQs []mcq.MCQ `json:"mcqs"`
}

type errorResponse struct {
	Kind    string   `json:"kind"`
	Stage   string   `json:"stage"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	in, cleanup, err := s.decode(r)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)
	ctx := llm.WithRunID(r.Context(), runID)

	mcqs, err := s.runner.Run(ctx, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if mcqs == nil {
		mcqs = []mcq.MCQ{}
	}
	writeJSON(w, http.StatusOK, generateResponse{MCQs: mcqs})
}

// decode reads either a JSON body or a multipart form. For uploads the file
// is spooled to a temp file keeping its extension; cleanup removes it.
func (s *Server) decode(r *http.Request) (pipeline.Input, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.decodeMultipart(r)
	}

	var req generateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return pipeline.Input{}, nil, mcq.Wrap(mcq.KindInput, err, "Invalid request body")
	}

	in := pipeline.Input{
		Text:         req.Text,
		NumQuestions: DefaultNumQuestions,
		Difficulty:   prompt.Difficulty(or(req.Difficulty, string(prompt.Easy))),
		BloomLevel:   prompt.BloomLevel(req.BloomLevel),
	}
	if req.NumQuestions != nil {
		in.NumQuestions = *req.NumQuestions
	}
	return in, nil, nil
}

func (s *Server) decodeMultipart(r *http.Request) (pipeline.Input, func(), error) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		return pipeline.Input{}, nil, mcq.Wrap(mcq.KindInput, err, "Invalid multipart form")
	}

	in := pipeline.Input{
		Text:         r.FormValue("text"),
		NumQuestions: DefaultNumQuestions,
		Difficulty:   prompt.Difficulty(or(r.FormValue("difficulty"), string(prompt.Easy))),
		BloomLevel:   prompt.BloomLevel(r.FormValue("bloom_level")),
	}
	if v := r.FormValue("num_questions"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pipeline.Input{}, nil, mcq.NewError(mcq.KindPrompt,
				fmt.Sprintf("Number of questions must be between %d and %d.", prompt.MinQuestions, prompt.MaxQuestions))
		}
		in.NumQuestions = n
	}

	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return pipeline.Input{}, nil, mcq.Wrap(mcq.KindLoader, err, "Failed to read upload")
	}
	defer f.Close()

	tmp, err := os.CreateTemp("", "quizrag-upload-*"+strings.ToLower(filepath.Ext(hdr.Filename)))
	if err != nil {
		return pipeline.Input{}, nil, mcq.Wrap(mcq.KindLoader, err, "Failed to store upload")
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		return pipeline.Input{}, cleanup, mcq.Wrap(mcq.KindLoader, err, "Failed to store upload")
	}
	if err := tmp.Close(); err != nil {
		return pipeline.Input{}, cleanup, mcq.Wrap(mcq.KindLoader, err, "Failed to store upload")
	}

	in.File = tmp.Name()
	return in, cleanup, nil
}

// StatusFor maps an error kind to an HTTP status: the caller's fault is
// 400, an upstream model service fault is 502, anything else is 500.
func StatusFor(kind mcq.Kind) int {
	switch kind {
	case mcq.KindInput, mcq.KindLoader, mcq.KindPrompt:
		return http.StatusBadRequest
	case mcq.KindIndexBuild, mcq.KindIndexQuery, mcq.KindGeneration, mcq.KindDeduplication:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Kind: "internal", Stage: "unknown", Message: err.Error()}
	status := http.StatusInternalServerError

	var e *mcq.Error
	if errors.As(err, &e) {
		resp.Kind = string(e.Kind)
		resp.Stage = e.Stage()
		resp.Details = e.Details
		status = StatusFor(e.Kind)
	}

	s.opts.Logger.WarnContext(r.Context(), "generation request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"kind", resp.Kind,
		"error", err,
	)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
