package handler

import (
	"net/http"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EventHandler handles event endpoints.
type EventHandler struct {
	calendar *service.CalendarService
	logger   *zap.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(calendar *service.CalendarService, logger *zap.Logger) *EventHandler {
	return &EventHandler{calendar: calendar, logger: logger}
}

// List lists events. With from and to it returns only the events occurring
// in that inclusive date range.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	var (
		events []*domain.Event
		err    error
	)
	switch {
	case from == "" && to == "":
		events, err = h.calendar.ListEvents(r.Context())
	case from == "" || to == "":
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "from and to must be given together")
		return
	default:
		events, err = h.calendar.ListEventsBetween(r.Context(), from, to)
	}
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// Get gets one event instance.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.calendar.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// Create creates an event, expanding recurrences into instances.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	count, err := h.calendar.CreateEvent(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, &domain.CreateEventResponse{Count: count})
}

// Update applies a patch to the instances selected by the mode parameter.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, err := domain.ParseScope(r.URL.Query().Get("mode"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var patch domain.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	if err := h.calendar.UpdateEvent(r.Context(), chi.URLParam(r, "id"), scope, patch); err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondOK(w)
}

// Delete removes the instances selected by the mode parameter.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, err := domain.ParseScope(r.URL.Query().Get("mode"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.calendar.DeleteEvent(r.Context(), chi.URLParam(r, "id"), scope); err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondOK(w)
}
