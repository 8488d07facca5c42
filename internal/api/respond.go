package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jnst/event-marketer-api/internal/model"
)

const (
	msgEventNotFound    = "Event not found"
	msgEventDeleted     = "Event deleted successfully"
	msgInternalError    = "Internal server error"
	msgInvalidJSON      = "Invalid JSON"
	msgBodyTooLarge     = "Request body too large"
	msgResourceNotFound = "Resource not found"
	msgMethodNotAllowed = "Method not allowed"
	msgRateLimited      = "Rate limit exceeded"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeServiceError maps service errors onto status codes. Storage details
// are logged and never sent to the client.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, model.ErrEventNotFound):
		writeError(w, http.StatusNotFound, msgEventNotFound)
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}
