// Package api exposes the tracker over HTTP with chi: books, progress entries,
// statistics, charts, the heatmap, backups and the Telegram webhook.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/service"
)

// UpdateHandler receives Telegram updates posted to the webhook.
type UpdateHandler interface {
	HandleWebhookUpdate(update tgbotapi.Update)
}

// Config holds the optional Telegram integration of the server.
type Config struct {
	// RequireAuth guards /api with Telegram Mini App init data signed by BotToken.
	RequireAuth bool
	BotToken    string
	IsAllowed   func(userID int64) bool

	// Webhook, when set, is mounted at WebhookPath.
	Webhook     UpdateHandler
	WebhookPath string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker *service.Tracker
	config  Config
	router  *chi.Mux
	logger  *zap.Logger
	now     func() time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(tracker *service.Tracker, config Config, logger *zap.Logger) *Server {
	s := &Server{
		tracker: tracker,
		config:  config,
		router:  chi.NewRouter(),
		logger:  logger,
		now:     time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	if s.config.Webhook != nil {
		path := s.config.WebhookPath
		if path == "" {
			path = "/telegram-webhook"
		}
		s.router.Post(path, s.handleWebhook)
	}

	s.router.Route("/api", func(r chi.Router) {
		if s.config.RequireAuth {
			r.Use(s.requireTelegramAuth)
		}

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleAddBook)
			r.Get("/{id}", s.handleGetBook)
			r.Delete("/{id}", s.handleDeleteBook)
			r.Post("/{id}/checkpoints", s.handleLogProgress)
			r.Get("/{id}/suggestion", s.handleSuggestPage)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/charts", s.handleCharts)
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})
}

// requestLogger logs every request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
