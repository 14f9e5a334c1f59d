package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Limit   *int              `json:"limit,omitempty"`
	Success bool              `json:"success"`
}

// writeJSON writes envelope with the given status code.
func writeJSON(w http.ResponseWriter, status int, envelope Envelope, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	envelope.Success = status < 400
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func success(w http.ResponseWriter, data any, logger *zap.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Data: data}, logger)
}

func created(w http.ResponseWriter, data any, logger *zap.Logger) {
	writeJSON(w, http.StatusCreated, Envelope{Data: data}, logger)
}

func fail(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	writeJSON(w, status, Envelope{Error: message}, logger)
}
