package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jnst/event-marketer-api/internal/model"
)

const maxBodyBytes = 1 << 20

type homeResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

func (*Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, homeResponse{
		Message: "Welcome to Event Marketer API",
		Status:  "running",
		Version: apiVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListEvents(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	writeData(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	event, err := s.svc.CreateEvent(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, event)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		handleNotFound(w, r)
		return
	}

	event, err := s.svc.GetEvent(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		handleNotFound(w, r)
		return
	}

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	event, err := s.svc.UpdateEvent(r.Context(), id, payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		handleNotFound(w, r)
		return
	}

	if err := s.svc.DeleteEvent(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, msgEventDeleted)
}

// parseID accepts unsigned decimal ids that fit in an int64.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return 0, false
	}

	return int64(id), true
}

// decodePayload reads a single JSON object from the body. An empty body
// yields an empty payload. On failure the error response is already written.
func decodePayload(w http.ResponseWriter, r *http.Request) (*model.EventPayload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var payload model.EventPayload
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return nil, false
	}

	return &payload, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}

	writeError(w, http.StatusBadRequest, msgInvalidJSON)
}
