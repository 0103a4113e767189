package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// multipartOverhead is allowed on top of the upload limit for form fields and boundaries
const multipartOverhead = 1 << 20

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	router         *http.ServeMux
	version        string
	maxUploadBytes int64
	allowedOrigins []string
	logger         *slog.Logger

	// Services
	authService driving.AuthService
	userService driving.UserService
	fileService driving.FileService
	quizService driving.QuizService

	// Infrastructure
	runtimeConfig *domain.RuntimeConfig
	db            Pinger // PostgreSQL health check
	redisClient   Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	MaxUploadBytes int64
	WriteTimeout   time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: 20 << 20,
		WriteTimeout:   120 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	userService driving.UserService,
	fileService driving.FileService,
	quizService driving.QuizService,
	runtimeConfig *domain.RuntimeConfig,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	defaults := DefaultConfig()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		maxUploadBytes: cfg.MaxUploadBytes,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
		authService:    authService,
		userService:    userService,
		fileService:    fileService,
		quizService:    quizService,
		runtimeConfig:  runtimeConfig,
		db:             db,
		redisClient:    redisClient,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router wrapped in recovery, logging and CORS middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.allowedOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}
	writer := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireWriter(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)

	// Auth endpoints (authenticated)
	s.router.Handle("POST /api/v1/auth/logout", authed(s.handleLogout))
	s.router.Handle("POST /api/v1/auth/logout-all", authed(s.handleLogoutAll))
	s.router.Handle("POST /api/v1/auth/password", authed(s.handleChangePassword))

	// User endpoints
	s.router.Handle("GET /api/v1/me", authed(s.handleGetMe))
	s.router.Handle("GET /api/v1/capabilities", authed(s.handleCapabilities))

	// Admin-only user management
	s.router.Handle("GET /api/v1/users", admin(s.handleListUsers))
	s.router.Handle("POST /api/v1/users", admin(s.handleCreateUser))
	s.router.Handle("DELETE /api/v1/users/{id}", admin(s.handleDeleteUser))

	// File endpoints (authenticated, scoped to the caller)
	s.router.Handle("GET /api/v1/formats", authed(s.handleListFormats))
	s.router.Handle("POST /api/v1/files", writer(s.handleUploadFile))
	s.router.Handle("GET /api/v1/files", authed(s.handleListFiles))
	s.router.Handle("GET /api/v1/files/{id}", authed(s.handleGetFile))
	s.router.Handle("PATCH /api/v1/files/{id}", writer(s.handleUpdateFile))
	s.router.Handle("DELETE /api/v1/files/{id}", writer(s.handleDeleteFile))
	s.router.Handle("GET /api/v1/files/{id}/download", authed(s.handleDownloadFile))
	s.router.Handle("GET /api/v1/files/{id}/content", authed(s.handleGetFileContent))
	s.router.Handle("GET /api/v1/files/{id}/preview", authed(s.handlePreviewFile))
	s.router.Handle("POST /api/v1/files/{id}/reparse", writer(s.handleReparseFile))

	// Quiz endpoints (authenticated, scoped to the caller)
	s.router.Handle("POST /api/v1/quizzes", writer(s.handleGenerateQuiz))
	s.router.Handle("GET /api/v1/quizzes", authed(s.handleListQuizzes))
	s.router.Handle("GET /api/v1/quizzes/{id}", authed(s.handleGetQuiz))
	s.router.Handle("DELETE /api/v1/quizzes/{id}", authed(s.handleDeleteQuiz))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("shutting down server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
