// Package server exposes the translator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/jobs"
	"github.com/valpere/tarjim/internal/pipeline"
)

// Translator is the synchronous half of the pipeline.
type Translator interface {
	Translate(ctx context.Context, text string, dir internal.Direction) (*pipeline.TextResult, error)
	TranslateDocument(ctx context.Context, text string, dir internal.Direction) (*pipeline.DocumentResult, error)
}

// JobQueue accepts document jobs and reports on them.
type JobQueue interface {
	Submit(ctx context.Context, sub jobs.Submission) (string, error)
	Status(ctx context.Context, id string) (*jobs.Job, error)
}

var (
	_ Translator = (*pipeline.Pipeline)(nil)
	_ JobQueue   = (*jobs.Manager)(nil)
)

type Server struct {
	translator Translator
	jobs       JobQueue
	logger     zerolog.Logger
	uploadDir  string
	maxUpload  int64
}

type Option func(*Server)

// WithUploadDir sets where uploaded documents wait for their job. Empty
// means the system temp directory.
func WithUploadDir(dir string) Option {
	return func(s *Server) { s.uploadDir = dir }
}

// WithMaxUploadBytes caps request bodies on the upload endpoint.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

func New(tr Translator, queue JobQueue, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		translator: tr,
		jobs:       queue,
		logger:     logger,
		maxUpload:  32 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "tarjim"})
	})

	r.Route("/translate", func(r chi.Router) {
		r.Post("/text", s.translateText)
		r.Post("/document", s.translateDocument)
		r.Post("/pdf", s.submitDocument)
	})
	r.Get("/status/{id}", s.status)

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info().
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
