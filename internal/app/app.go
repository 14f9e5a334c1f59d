package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"momentum/internal/api"
	"momentum/internal/bot"
	"momentum/internal/config"
	"momentum/internal/service"
	"momentum/internal/storage"
)

// telegramBot is the part of *bot.Bot the application drives
type telegramBot interface {
	api.UpdateHandler
	Token() string
	IsAllowed(userID int64) bool
	Start() error
	Stop()
	StartWebhook(baseURL string) error
}

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.Storage
	tracker *service.Tracker
	bot     telegramBot
	server  *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	return newApp(cfg, logger)
}

func newApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Momentum...")

	db, err := OpenStorage(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.tracker = service.New(db, logger, service.WithLocation(cfg.Location))

	if cfg.BotEnabled() {
		if err := app.initBot(); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, running HTTP API only")
	}

	app.initHTTPServer()
	return app, nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	b, err := bot.NewBot(a.config.TelegramToken, a.tracker, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = b
	return nil
}

// initHTTPServer mounts the API, and the webhook in webhook mode.
// With a bot every /api request must carry Mini App init data signed with its token.
func (a *App) initHTTPServer() {
	apiConfig := api.Config{}
	if a.bot != nil {
		apiConfig.RequireAuth = true
		apiConfig.BotToken = a.bot.Token()
		apiConfig.IsAllowed = a.bot.IsAllowed
		if a.config.WebhookMode {
			apiConfig.Webhook = a.bot
			apiConfig.WebhookPath = bot.WebhookPath
		}
	} else {
		a.logger.Warn("HTTP API has no authentication without a Telegram bot",
			zap.String("host", a.config.Host))
	}

	a.server = &http.Server{
		Addr:         net.JoinHostPort(a.config.Host, a.config.Port),
		Handler:      api.NewServer(a.tracker, apiConfig, a.logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Handler returns the HTTP handler serving the API
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if a.bot != nil {
		if a.config.WebhookMode {
			// Webhook mode: configure webhook and wait for HTTP requests
			if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
				a.Shutdown()
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
			a.logger.Info("Webhook configured", zap.String("path", bot.WebhookPath))
		} else {
			// Polling mode: actively poll Telegram servers
			go func() {
				if err := a.bot.Start(); err != nil {
					a.logger.Error("Failed to start bot", zap.Error(err))
				}
			}()
		}
	}

	var runErr error
	select {
	case <-sigChan:
		a.logger.Info("Shutting down...")
	case err := <-serverErr:
		a.logger.Error("HTTP server error", zap.Error(err))
		runErr = fmt.Errorf("http server: %w", err)
	}

	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	if a.bot != nil {
		a.bot.Stop()
	}

	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	// Close database
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
