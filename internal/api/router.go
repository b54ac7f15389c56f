package api

import (
	"net/http"

	"github.com/bcnelson/household-calendar/internal/api/handler"
	"github.com/bcnelson/household-calendar/internal/api/middleware"
	"github.com/bcnelson/household-calendar/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router with all routes configured. live serves
// the WebSocket endpoint and may be nil.
func NewRouter(calendar *service.CalendarService, live http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if live != nil {
		r.Get("/ws", live.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentType)

		memberHandler := handler.NewMemberHandler(calendar, logger)
		r.Get("/members", memberHandler.List)
		r.Post("/members", memberHandler.Create)
		r.Delete("/members/{id}", memberHandler.Delete)

		eventHandler := handler.NewEventHandler(calendar, logger)
		r.Get("/events", eventHandler.List)
		r.Post("/events", eventHandler.Create)
		r.Get("/events/{id}", eventHandler.Get)
		r.Put("/events/{id}", eventHandler.Update)
		r.Delete("/events/{id}", eventHandler.Delete)

		calendarHandler := handler.NewCalendarHandler(calendar, logger)
		r.Get("/state", calendarHandler.State)
		r.Get("/calendar.ics", calendarHandler.ICS)
	})

	return r
}
