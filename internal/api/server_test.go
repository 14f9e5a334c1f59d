package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"momentum/internal/service"
	"momentum/internal/stats"
	"momentum/internal/storage/stubs"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	server  *Server
	tracker *service.Tracker
}

func setupTestServer(t *testing.T, config Config) *testServer {
	t.Helper()
	db := stubs.NewMockDB()
	require.NoError(t, db.Initialize(context.Background()))

	tracker := service.New(db, zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithLocation(time.UTC))

	server := NewServer(tracker, config, zap.NewNop())
	server.now = func() time.Time { return fixedNow }
	return &testServer{server: server, tracker: tracker}
}

func (ts *testServer) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Limit   *int              `json:"limit"`
	Success bool              `json:"success"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (ts *testServer) addBook(t *testing.T, title string, total int) string {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/books", service.NewBook{Title: title, TotalPages: total})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[service.BookView](t, rec).Data.ID
}

func TestHealthAndRoot(t *testing.T) {
	ts := setupTestServer(t, Config{})
	ts.addBook(t, "Dune", 400)

	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.True(t, health.Success)
	assert.Equal(t, "healthy", health.Data.Status)
	assert.Equal(t, 1, health.Data.Books)

	rec = ts.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Momentum is running")
}

func TestBookLifecycle(t *testing.T) {
	ts := setupTestServer(t, Config{})
	id := ts.addBook(t, "Dune", 400)

	rec := ts.do(http.MethodGet, "/api/books/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", decode[service.BookView](t, rec).Data.Title)

	rec = ts.do(http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.BookView](t, rec).Data, 1)

	rec = ts.do(http.MethodDelete, "/api/books/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "book not found", decode[any](t, rec).Error)

	rec = ts.do(http.MethodDelete, "/api/books/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBooksFilters(t *testing.T) {
	ts := setupTestServer(t, Config{})
	id := ts.addBook(t, "Dune", 100)
	ts.addBook(t, "Emma", 300)

	rec := ts.do(http.MethodPost, "/api/books/"+id+"/checkpoints", CheckpointRequest{Page: 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books", nil)
	assert.Len(t, decode[[]service.BookView](t, rec).Data, 1)

	rec = ts.do(http.MethodGet, "/api/books?all=true", nil)
	assert.Len(t, decode[[]service.BookView](t, rec).Data, 2)

	rec = ts.do(http.MethodGet, "/api/books?all=true&q=dun", nil)
	books := decode[[]service.BookView](t, rec).Data
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	rec = ts.do(http.MethodGet, "/api/books?all=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddBookValidation(t *testing.T) {
	ts := setupTestServer(t, Config{})

	rec := ts.do(http.MethodPost, "/api/books", service.NewBook{Title: "", TotalPages: 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[any](t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Fields, "title")
	assert.Contains(t, env.Fields, "totalPages")

	rec = ts.do(http.MethodPost, "/api/books", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogProgress(t *testing.T) {
	ts := setupTestServer(t, Config{})
	id := ts.addBook(t, "Dune", 400)
	path := "/api/books/" + id + "/checkpoints"

	rec := ts.do(http.MethodPost, path, CheckpointRequest{Date: "2024-01-08", Page: 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[service.BookView](t, rec).Data
	assert.Equal(t, 100, view.LatestPage)
	assert.Equal(t, 25, view.ProgressPercent)

	t.Run("above later entry", func(t *testing.T) {
		rec := ts.do(http.MethodPost, path, CheckpointRequest{Date: "2024-01-05", Page: 150})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decode[any](t, rec)
		require.NotNil(t, env.Limit)
		assert.Equal(t, 100, *env.Limit)
		assert.Equal(t, service.ErrPageAboveNext.Error(), env.Error)
	})

	t.Run("below earlier entry", func(t *testing.T) {
		rec := ts.do(http.MethodPost, path, CheckpointRequest{Date: "2024-01-09", Page: 50})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decode[any](t, rec)
		require.NotNil(t, env.Limit)
		assert.Equal(t, 100, *env.Limit)
	})

	t.Run("future date", func(t *testing.T) {
		rec := ts.do(http.MethodPost, path, CheckpointRequest{Date: "2024-01-11", Page: 150})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, service.ErrFutureDate.Error(), decode[any](t, rec).Error)
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := ts.do(http.MethodPost, path, CheckpointRequest{Date: "yesterday", Page: 150})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown book", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/books/missing/checkpoints", CheckpointRequest{Page: 1})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSuggestPage(t *testing.T) {
	ts := setupTestServer(t, Config{})
	id := ts.addBook(t, "Dune", 400)
	ts.do(http.MethodPost, "/api/books/"+id+"/checkpoints", CheckpointRequest{Date: "2024-01-08", Page: 100})

	rec := ts.do(http.MethodGet, "/api/books/"+id+"/suggestion?date=2024-01-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SuggestionResponse{Date: "2024-01-09", Page: 100}, decode[SuggestionResponse](t, rec).Data)

	rec = ts.do(http.MethodGet, "/api/books/"+id+"/suggestion", nil)
	assert.Equal(t, "2024-01-10", decode[SuggestionResponse](t, rec).Data.Date)

	rec = ts.do(http.MethodGet, "/api/books/"+id+"/suggestion?date=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsChartsHeatmap(t *testing.T) {
	ts := setupTestServer(t, Config{})
	id := ts.addBook(t, "Dune", 400)
	ts.do(http.MethodPost, "/api/books/"+id+"/checkpoints", CheckpointRequest{Date: "2024-01-09", Page: 30})
	ts.do(http.MethodPost, "/api/books/"+id+"/checkpoints", CheckpointRequest{Date: "2024-01-10", Page: 50})

	rec := ts.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	k := decode[stats.KPIs](t, rec).Data
	assert.Equal(t, 20, k.Today)
	assert.Equal(t, 2, k.Streaks.Current)

	rec = ts.do(http.MethodGet, "/api/charts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[stats.Charts](t, rec).Data
	assert.Equal(t, 50, c.LifetimePages)
	assert.Len(t, c.Days12.Values, stats.RecentDays)

	rec = ts.do(http.MethodGet, "/api/heatmap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[stats.Heatmap](t, rec).Data.Rows, stats.HeatmapMonths)

	rec = ts.do(http.MethodGet, "/api/heatmap?months=12", nil)
	h := decode[stats.Heatmap](t, rec).Data
	require.Len(t, h.Rows, 12)
	assert.Equal(t, "2024-01", h.Rows[11].Month)
	assert.Equal(t, 30, h.MaxDay)

	rec = ts.do(http.MethodGet, "/api/heatmap?months=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportImport(t *testing.T) {
	source := setupTestServer(t, Config{})
	id := source.addBook(t, "Dune", 400)
	source.do(http.MethodPost, "/api/books/"+id+"/checkpoints", CheckpointRequest{Date: "2024-01-09", Page: 30})

	rec := source.do(http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="momentum-2024-01-10.json"`, rec.Header().Get("Content-Disposition"))
	backup := rec.Body.Bytes()

	target := setupTestServer(t, Config{})
	target.addBook(t, "Replaced", 10)

	rec = target.do(http.MethodPost, "/api/import", backup)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ImportResponse](t, rec).Data.Imported)

	rec = target.do(http.MethodGet, "/api/books/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decode[service.BookView](t, rec).Data.LatestPage)

	rec = target.do(http.MethodPost, "/api/import", "not a backup")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func signedInitData(token string, userID int64, authDate time.Time) string {
	values := url.Values{}
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Ann"}`)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("hash", signInitData(values, token))
	return values.Encode()
}

func TestValidateInitData(t *testing.T) {
	const token = "123456:ABC"

	id, err := validateInitData(signedInitData(token, 42, fixedNow.Add(-time.Hour)), token, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = validateInitData(signedInitData(token, 42, fixedNow.Add(-25*time.Hour)), token, fixedNow)
	assert.ErrorContains(t, err, "too old")

	_, err = validateInitData(signedInitData("other", 42, fixedNow), token, fixedNow)
	assert.ErrorContains(t, err, "invalid hash")

	_, err = validateInitData("", token, fixedNow)
	assert.ErrorContains(t, err, "missing initData")

	_, err = validateInitData("user=x", token, fixedNow)
	assert.ErrorContains(t, err, "missing hash")
}

func TestTelegramAuth(t *testing.T) {
	const token = "123456:ABC"
	ts := setupTestServer(t, Config{
		RequireAuth: true,
		BotToken:    token,
		IsAllowed:   func(id int64) bool { return id == 42 },
	})

	rec := ts.do(http.MethodGet, "/api/books", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books", nil, "Authorization", "Bearer abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books", nil, "Authorization", "tma "+signedInitData(token, 7, fixedNow))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/books", nil, "Authorization", "tma "+signedInitData(token, 42, fixedNow))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public
	rec = ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type updateSink chan tgbotapi.Update

func (s updateSink) HandleWebhookUpdate(update tgbotapi.Update) {
	s <- update
}

func TestWebhook(t *testing.T) {
	sink := make(updateSink, 1)
	ts := setupTestServer(t, Config{Webhook: sink, WebhookPath: "/telegram-webhook"})

	rec := ts.do(http.MethodPost, "/telegram-webhook", `{"update_id": 7, "message": {"message_id": 1, "text": "/start"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case update := <-sink:
		assert.Equal(t, 7, update.UpdateID)
		assert.Equal(t, "/start", update.Message.Text)
	case <-time.After(time.Second):
		t.Fatal("update was not delivered")
	}

	rec = ts.do(http.MethodPost, "/telegram-webhook", "garbage")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/telegram-webhook", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookDisabled(t *testing.T) {
	ts := setupTestServer(t, Config{})
	rec := ts.do(http.MethodPost, "/telegram-webhook", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, Config{})
	rec := ts.do(http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "404"))
}
