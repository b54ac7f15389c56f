package handler

import (
	"net/http"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MemberHandler handles member endpoints.
type MemberHandler struct {
	calendar *service.CalendarService
	logger   *zap.Logger
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(calendar *service.CalendarService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{calendar: calendar, logger: logger}
}

// List lists all registered members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.calendar.ListMembers(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, members)
}

// Create registers a member.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	member, err := h.calendar.CreateMember(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, member)
}

// Delete removes a member and its events.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.calendar.DeleteMember(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondOK(w)
}
