// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog"

	"github.com/jeranaias/campus-chat/internal/attach"
	"github.com/jeranaias/campus-chat/internal/config"
	"github.com/jeranaias/campus-chat/internal/questions"
	"github.com/jeranaias/campus-chat/internal/session"
	"github.com/jeranaias/campus-chat/internal/storage"
	"github.com/jeranaias/campus-chat/internal/study"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// Version is reported by /health.
	Version = "1.0.0"

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 1 << 20

	// maxUploadOverhead is the multipart framing allowed on top of the
	// per-file attachment limit.
	maxUploadOverhead = 1 << 20

	// maxUploadFiles bounds one upload batch.
	maxUploadFiles = 10
)

// ============================================================================
// SERVER
// ============================================================================

// Deps are the components the HTTP API exposes.
type Deps struct {
	// Assistant answers chat messages. Required.
	Assistant session.Assistant

	// Conversations persists chat history. Required.
	Conversations *storage.ConversationRepo

	// Tracker times study sessions. Required.
	Tracker *study.Tracker

	// Questions defaults to a generator seeded from the clock.
	Questions *questions.Generator

	// Intake defaults to the standard attachment limit.
	Intake *attach.Intake

	Logger zerolog.Logger
}

// Server is the JSON API in front of the chat, study and export components.
type Server struct {
	cfg    config.ServerConfig
	router chi.Router
	server *http.Server

	sessions      *session.Registry
	conversations *storage.ConversationRepo
	tracker       *study.Tracker
	questions     *questions.Generator
	intake        *attach.Intake
	limiter       *RateLimiter
	query         *schema.Decoder

	log     zerolog.Logger
	started time.Time
}

// New builds a server listening on cfg.Addr.
func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Questions == nil {
		deps.Questions = questions.NewGenerator()
	}
	if deps.Intake == nil {
		deps.Intake = attach.New(attach.DefaultMaxBytes)
	}

	query := schema.NewDecoder()
	query.IgnoreUnknownKeys(true)

	log := deps.Logger.With().Str("component", "server").Logger()
	s := &Server{
		cfg:           cfg,
		router:        chi.NewRouter(),
		conversations: deps.Conversations,
		tracker:       deps.Tracker,
		questions:     deps.Questions,
		intake:        deps.Intake,
		limiter:       NewRateLimiter(cfg.RateLimitPerMin),
		query:         query,
		log:           log,
		started:       time.Now(),
	}

	sessionLog := deps.Logger
	s.sessions = session.NewRegistry(func(id string) *session.Manager {
		return session.NewManager(session.Config{
			SessionID:  id,
			Assistant:  deps.Assistant,
			Repository: deps.Conversations,
			Logger:     &sessionLog,
		})
	})

	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the live chat sessions.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(Chain(
		RecoveryMiddleware(s.log),
		LoggingMiddleware(s.log),
		SecurityHeadersMiddleware(),
	))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.limiter, s.log))

		r.Get("/courses", restHandler(s.handleCourses))
		r.Get("/videos", restHandler(s.handleVideos))
		r.Post("/attachments", restHandler(s.handleAttachments))

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/messages", restHandler(s.handleGetMessages))
			r.Post("/messages", restHandler(s.handleSendMessage))
			r.Delete("/messages", restHandler(s.handleClearMessages))
			r.Get("/questions", restHandler(s.handleQuestions))
			r.Get("/export", s.handleExport)
		})

		r.Route("/study", func(r chi.Router) {
			r.Get("/", restHandler(s.handleStudyStatus))
			r.Post("/start", restHandler(s.handleStudyStart))
			r.Post("/end", restHandler(s.handleStudyEnd))
		})
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve handles requests on ln and blocks until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Str("version", Version).Msg("server_start")
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. A server
// shut down before Serve never starts.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	s.log.Info().Int("sessions", s.sessions.Len()).Msg("server_shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// codedError carries the HTTP status for a handler failure.
type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func codedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

// restHandler adapts a handler that returns a JSON-able value.
func restHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			var cerr *codedError
			if errors.As(err, &cerr) {
				writeError(w, cerr.code, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if res == nil {
			res = struct{}{}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// parseBody decodes a JSON request body into T. An empty body yields the
// zero value.
func parseBody[T any](r *http.Request) (T, error) {
	var data T
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBodySize))
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return data, codedErrorf(http.StatusBadRequest, "unable to parse request body")
	}
	return data, nil
}

// parseQuery decodes URL query parameters into T.
func (s *Server) parseQuery(r *http.Request, dst any) error {
	if err := s.query.Decode(dst, r.URL.Query()); err != nil {
		return codedErrorf(http.StatusBadRequest, "unable to parse query parameters")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
