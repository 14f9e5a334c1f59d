package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"momentum/internal/config"
	"momentum/internal/service"
	"momentum/internal/storage/stubs"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		db, err := OpenStorage(ctx, &config.Config{StorageBackend: config.BackendMemory}, zap.NewNop())
		require.NoError(t, err)
		defer db.Close()

		books, err := db.LoadBooks(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "momentum.db")
		db, err := OpenStorage(ctx, &config.Config{StorageBackend: config.BackendSQLite, SQLitePath: path}, zap.NewNop())
		require.NoError(t, err)
		defer db.Close()

		assert.FileExists(t, path)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenStorage(ctx, &config.Config{StorageBackend: "postgres"}, zap.NewNop())
		assert.ErrorContains(t, err, "unknown storage backend")
	})
}

func TestNewAppWithoutBot(t *testing.T) {
	cfg := &config.Config{
		Port:           "0",
		StorageBackend: config.BackendMemory,
		Location:       time.UTC,
	}
	app, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, app.bot)
	assert.Equal(t, ":0", app.server.Addr)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// No bot means no webhook route
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram-webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, app.Shutdown())
}

// stubBot satisfies telegramBot without talking to Telegram
type stubBot struct{}

func (stubBot) HandleWebhookUpdate(tgbotapi.Update) {}
func (stubBot) Token() string { return "123456:ABC" }
func (stubBot) IsAllowed(userID int64) bool { return userID == 42 }
func (stubBot) Start() error { return nil }
func (stubBot) Stop() {}
func (stubBot) StartWebhook(baseURL string) error { return nil }

func newAppWithBot(t *testing.T, webhookMode bool) *App {
	t.Helper()
	db := stubs.NewMockDB()
	app := &App{
		config:  &config.Config{Port: "8080", WebhookMode: webhookMode, Location: time.UTC},
		logger:  zap.NewNop(),
		db:      db,
		tracker: service.New(db, zap.NewNop(), service.WithLocation(time.UTC)),
		bot:     stubBot{},
	}
	app.initHTTPServer()
	return app
}

func TestBotRequiresInitDataInEveryMode(t *testing.T) {
	for _, webhookMode := range []bool{false, true} {
		app := newAppWithBot(t, webhookMode)

		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodGet, "/api/books", nil),
			httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(`{"books":[]}`)),
			httptest.NewRequest(http.MethodDelete, "/api/books/b1", nil),
		} {
			rec := httptest.NewRecorder()
			app.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "webhook=%v %s %s", webhookMode, req.Method, req.URL.Path)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.Header.Set("Authorization", "tma user=%7B%22id%22%3A42%7D&hash=bad")
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		// Health stays public
		rec = httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWebhookRouteOnlyInWebhookMode(t *testing.T) {
	polling := newAppWithBot(t, false)
	rec := httptest.NewRecorder()
	polling.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	webhook := newAppWithBot(t, true)
	rec = httptest.NewRecorder()
	webhook.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader(`{"update_id":1}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
