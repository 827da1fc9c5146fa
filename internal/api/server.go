package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ai9campus/smarttutor/internal/curriculum"
	"github.com/ai9campus/smarttutor/internal/journal"
	"github.com/ai9campus/smarttutor/internal/session"
	"github.com/ai9campus/smarttutor/internal/store"
)

// FeedbackRecorder accepts learner feedback. *journal.Journal implements it.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, fb journal.Feedback) int
}

// maxBodyBytes caps every request body under /api/v1.
const maxBodyBytes = 64 << 10

// TranscriptReader returns archived turns. *store.Store implements it.
type TranscriptReader interface {
	ListTurns(ctx context.Context, sessionID uuid.UUID) ([]store.TurnRecord, error)
}

// Info is reported by the status endpoint.
type Info struct {
	Version  string
	Provider string
	Model    string
}

type Config struct {
	Port     int
	APIToken string
	Sessions *session.Manager
	Index    *curriculum.Index
	Feedback FeedbackRecorder
	// Transcripts is nil when no archive is configured.
	Transcripts TranscriptReader
	Info        Info
	Logger      *slog.Logger
}

type Server struct {
	router   *chi.Mux
	port     int
	http     *http.Server
	sessions *session.Manager
	index    *curriculum.Index
	feedback    FeedbackRecorder
	transcripts TranscriptReader
	info        Info
	logger      *slog.Logger
}

func NewServer(cfg Config) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:      router,
		port:        cfg.Port,
		sessions:    cfg.Sessions,
		index:       cfg.Index,
		feedback:    cfg.Feedback,
		transcripts: cfg.Transcripts,
		info:        cfg.Info,
		logger:      cfg.Logger,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(cfg.APIToken))
		r.Use(middleware.RequestSize(maxBodyBytes))

		r.Get("/tutor/status", s.status)
		r.Get("/panels", s.panels)
		r.Get("/curriculum", s.curriculum)
		r.Get("/curriculum/lookup", s.lookup)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/settings", s.updateSettings)
			r.Post("/messages", s.postMessage)
			r.Post("/reset", s.resetSession)
			r.Post("/feedback", s.postFeedback)
			r.Get("/transcript", s.transcript)
		})
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "smarttutor",
		"status":   "ok",
		"version":  s.info.Version,
		"provider": s.info.Provider,
		"model":    s.info.Model,
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDecodeError reports a request body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
}
