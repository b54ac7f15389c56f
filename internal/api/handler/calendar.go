package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/ics"
	"github.com/bcnelson/household-calendar/internal/service"
	"go.uber.org/zap"
)

const calendarName = "Household Calendar"

// CalendarHandler serves whole-calendar views.
type CalendarHandler struct {
	calendar *service.CalendarService
	logger   *zap.Logger
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(calendar *service.CalendarService, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, logger: logger}
}

// State returns every member and event.
func (h *CalendarHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.calendar.State(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// ICS returns the calendar as an iCalendar feed, optionally for one member.
func (h *CalendarHandler) ICS(w http.ResponseWriter, r *http.Request) {
	state, err := h.calendar.State(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	opts := ics.Options{Name: calendarName, Stamp: time.Now()}
	if memberID := r.URL.Query().Get("member"); memberID != "" {
		if !hasMember(state, memberID) {
			handleError(w, h.logger, fmt.Errorf("member %s: %w", memberID, domain.ErrNotFound))
			return
		}
		opts.MemberID = memberID
		for _, m := range state.Members {
			if m.ID == memberID {
				opts.Name = calendarName + " - " + m.Name
			}
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ics.Export(state, opts)))
}

func hasMember(state *domain.State, id string) bool {
	if id == domain.SharedMemberID {
		return true
	}
	for _, m := range state.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}
