// Package server implements the remote compute boundary of the secure photo
// search protocol. It stores per-user encrypted vectors and encrypted image
// payloads, and performs the blind dot product on request. It never holds a
// private key: everything it touches is ciphertext, and every query is scoped
// to the authenticated user's own records.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GomathyDhanya/SecureSearch/internal/auth"
	"github.com/GomathyDhanya/SecureSearch/internal/store"
	"github.com/GomathyDhanya/SecureSearch/pkg/blob"
	"github.com/GomathyDhanya/SecureSearch/pkg/hecrypt"
)

// vectorCacheSize bounds the parsed-ciphertext cache. At LogN=13 a cached
// ciphertext is a few hundred KiB, so this caps cache memory around 1 GiB.
const vectorCacheSize = 4096

// Config holds server configuration.
type Config struct {
	// Address to listen on (e.g. ":8080").
	Address string

	// Read/write timeouts. Writes get longer because homomorphic scoring
	// of a large library takes a while.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		Address:      ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
}

// Server wires the HTTP API to its collaborators.
type Server struct {
	records store.RecordStore
	blobs   blob.Store
	auth    *auth.Service
	engine  *hecrypt.Engine
	vectors *hecrypt.CiphertextCache
	logger  *slog.Logger

	httpServer *http.Server
	mux        *http.ServeMux
}

// New creates a server instance.
func New(cfg Config, st store.Store, blobs blob.Store, authService *auth.Service, engine *hecrypt.Engine, logger *slog.Logger) *Server {
	s := &Server{
		records: st,
		blobs:   blobs,
		auth:    authService,
		engine:  engine,
		vectors: hecrypt.NewCiphertextCache(vectorCacheSize),
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/v1/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/v1/login", s.handleLogin)

	s.mux.HandleFunc("POST /api/v1/images", s.withAuth(s.handleUpload))
	s.mux.HandleFunc("GET /api/v1/images/{id}", s.withAuth(s.handleFetchImage))
	s.mux.HandleFunc("POST /api/v1/search", s.withAuth(s.handleSearch))
}

// Handler exposes the route mux; used by tests to run the server in-process.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server starting", "address", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withAuth wraps a handler with bearer-token authentication.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		userID, err := s.auth.Authenticate(r.Context(), parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

type contextKey string

const userIDKey contextKey = "userID"

// callerID retrieves the authenticated user id from the request context.
func callerID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
