package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alkime/assessor/internal/config"
	"github.com/alkime/assessor/internal/interview"
	"github.com/alkime/assessor/internal/store"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	router   *gin.Engine
	sessions *store.SessionStore
	ctrl     *interview.Controller
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source stamped on commands.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a new Server instance
func New(
	cfg *config.Config,
	logger *slog.Logger,
	sessions *store.SessionStore,
	ctrl *interview.Controller,
	opts ...Option,
) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// Configure proxy trust for production (Fly.io)
	if cfg.Env == config.EnvProduction {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	server := &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		sessions: sessions,
		ctrl:     ctrl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(server)
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, s *Server) error {
	httpServer := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "port", s.config.Port)
		errC <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	{
		api.POST("/sessions", s.handleCreateSession)

		sess := api.Group("/sessions/:id")
		sess.GET("", s.handleGetSession)
		sess.DELETE("", s.handleDeleteSession)
		sess.PUT("/position", s.handleSetPosition)
		sess.POST("/lobby/messages", s.handleLobbyMessage)
		sess.POST("/assessment", s.handleStart)
		sess.POST("/refresh", s.handleRefresh)
		sess.GET("/speech", s.handleSpeech)
		sess.POST("/answers", s.handleAnswer)
		sess.POST("/skip", s.handleSkip)
		sess.POST("/end", s.handleEnd)
		sess.POST("/report", s.handleReport)
		sess.POST("/reset", s.handleReset)
		sess.GET("/events", s.handleEvents)
	}

	// Front-end assets; explicit routes above take precedence.
	s.router.Use(static.Serve("/", static.LocalFile(s.config.PublicDir, true)))
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "assessor",
		"sessions": s.sessions.Len(),
	})
}
