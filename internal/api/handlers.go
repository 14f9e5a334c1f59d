package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"momentum/internal/calendar"
	"momentum/internal/service"
)

// maxImportBytes caps the size of an uploaded backup document
const maxImportBytes = 10 << 20

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Books  int    `json:"books"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Momentum is running")
}

// handleHealth reports whether the storage backend answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	books, err := s.tracker.ListBooks(r.Context(), service.ListFilter{IncludeFinished: true})
	if err != nil {
		s.logger.Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Envelope{
			Data:  HealthResponse{Status: "unhealthy"},
			Error: "storage unavailable",
		}, s.logger)
		return
	}
	success(w, HealthResponse{Status: "healthy", Books: len(books)}, s.logger)
}

// handleListBooks lists books. ?q= searches title and author, ?all=true includes finished books.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	filter := service.ListFilter{Query: r.URL.Query().Get("q")}
	if all := r.URL.Query().Get("all"); all != "" {
		include, err := strconv.ParseBool(all)
		if err != nil {
			fail(w, http.StatusBadRequest, "all must be a boolean", s.logger)
			return
		}
		filter.IncludeFinished = include
	}

	books, err := s.tracker.ListBooks(r.Context(), filter)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, books, s.logger)
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req service.NewBook
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}

	book, err := s.tracker.AddBook(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	created(w, service.NewBookView(book), s.logger)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	view, err := s.tracker.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, view, s.logger)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckpointRequest is the body of POST /api/books/{id}/checkpoints. An empty date means today.
type CheckpointRequest struct {
	Date string `json:"date"`
	Page int    `json:"page"`
}

func (s *Server) handleLogProgress(w http.ResponseWriter, r *http.Request) {
	var req CheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}

	book, err := s.tracker.LogProgress(r.Context(), service.Progress{
		BookID: chi.URLParam(r, "id"),
		Date:   req.Date,
		Page:   req.Page,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, service.NewBookView(book), s.logger)
}

// SuggestionResponse is the body of GET /api/books/{id}/suggestion.
type SuggestionResponse struct {
	Date string `json:"date"`
	Page int    `json:"page"`
}

// handleSuggestPage returns the page to prefill for ?date= (default today).
func (s *Server) handleSuggestPage(w http.ResponseWriter, r *http.Request) {
	date := s.tracker.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := calendar.Parse(raw)
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error(), s.logger)
			return
		}
		date = d
	}

	page, err := s.tracker.SuggestPage(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, SuggestionResponse{Date: date.String(), Page: page}, s.logger)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	k, err := s.tracker.Overview(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, k, s.logger)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	c, err := s.tracker.Charts(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, c, s.logger)
}

// handleHeatmap accepts ?months= (default 36).
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 120 {
			fail(w, http.StatusBadRequest, "months must be between 1 and 120", s.logger)
			return
		}
		months = n
	}

	h, err := s.tracker.Heatmap(r.Context(), months)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, h, s.logger)
}

// handleExport streams the raw backup document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.tracker.ExportBytes(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="momentum-%s.json"`, s.tracker.Today()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write export", zap.Error(err))
	}
}

// ImportResponse is the body of POST /api/import.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// handleImport replaces all books with the uploaded backup document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	n, err := s.tracker.Import(r.Context(), body)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	success(w, ImportResponse{Imported: n}, s.logger)
}

// handleWebhook hands Telegram updates to the bot.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("Error decoding webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Process update in background to respond quickly to Telegram
	go s.config.Webhook.HandleWebhookUpdate(update)

	w.WriteHeader(http.StatusOK)
}
