package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"momentum/internal/service"
	"momentum/internal/validation"
)

// handleError maps service errors to HTTP responses; unknown errors become 500.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var bound *service.BoundError
	var verr *validation.Error

	switch {
	case errors.Is(err, service.ErrBookNotFound):
		fail(w, http.StatusNotFound, "book not found", s.logger)
	case errors.As(err, &bound):
		limit := bound.Limit
		writeJSON(w, http.StatusBadRequest, Envelope{Error: bound.Err.Error(), Limit: &limit}, s.logger)
	case errors.Is(err, service.ErrFutureDate):
		fail(w, http.StatusBadRequest, err.Error(), s.logger)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, Envelope{Error: "validation failed", Fields: verr.Fields}, s.logger)
	case errors.Is(err, service.ErrInvalidInput):
		fail(w, http.StatusBadRequest, err.Error(), s.logger)
	default:
		s.logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		fail(w, http.StatusInternalServerError, "internal server error", s.logger)
	}
}
