package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aulasec/api/handlers"
	"aulasec/core/metrics"
)

type routeHandlers struct {
	incidents *handlers.IncidentsHandler
	realtime  *handlers.RealtimeHandler
}

func (s *Server) Router() http.Handler {
	h := s.newRouteHandlers()

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Get("/ws", h.realtime.ServeWS)

	r.Route("/api/incidents", func(r chi.Router) {
		r.Post("/", h.incidents.Create)
		r.Get("/", h.incidents.List)
		r.Get("/{id}", h.incidents.Get)
		r.Put("/{id}/status", h.incidents.UpdateStatus)
		r.Patch("/{id}", h.incidents.Edit)
	})

	return r
}
