// Package server provides the HTTP REST API for the talent board.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/talent-board/internal/db"
	"github.com/jonathan/talent-board/internal/digest"
	"github.com/jonathan/talent-board/internal/lifecycle"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	db         *db.DB
	engine     *lifecycle.Engine
	runner     *digest.Runner
	jwtService *JWTService
	validator  *validator.Validate
	log        *zap.SugaredLogger
}

// Config holds server configuration
type Config struct {
	Port      int
	JWTSecret string
}

// New creates a new server instance wired to the given collaborators.
func New(cfg Config, database *db.DB, engine *lifecycle.Engine, runner *digest.Runner, log *zap.SugaredLogger) *Server {
	s := &Server{
		db:         database,
		engine:     engine,
		runner:     runner,
		jwtService: NewJWTService(cfg.JWTSecret),
		validator:  validator.New(),
		log:        log,
	}

	mux := http.NewServeMux()

	// Posting endpoints
	mux.HandleFunc("GET /postings", s.handleSearchPostings)
	mux.HandleFunc("GET /postings/{id}", s.handleGetPosting)
	mux.HandleFunc("POST /postings", s.handleCreatePosting)
	mux.HandleFunc("PUT /postings/{id}", s.handleUpdatePosting)
	mux.HandleFunc("DELETE /postings/{id}", s.handleDeletePosting)

	// Application lifecycle endpoints
	mux.HandleFunc("POST /postings/{id}/applications", s.handleSubmitApplication)
	mux.HandleFunc("GET /postings/{id}/applications", s.handleListPostingApplications)
	mux.HandleFunc("PATCH /postings/{id}/applications/{app_id}", s.handleUpdateApplicationStatus)
	mux.HandleFunc("GET /users/{id}/applications", s.handleListMyApplications)
	mux.HandleFunc("POST /postings/{id}/reconcile", s.handleReconcile)

	// Digest and health
	mux.HandleFunc("POST /digest/run", s.handleRunDigest)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Infow("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorw("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// domainErrorResponse maps a domain error to its HTTP status, attaching
// a machine-readable code where one exists.
func (s *Server) domainErrorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	body := map[string]string{"error": err.Error()}
	if code := errorCode(err); code != "" {
		body["code"] = code
	}
	s.jsonResponse(w, status, body)
}
