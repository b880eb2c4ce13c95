package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"aulasec/api/handlers"
	"aulasec/config"
	"aulasec/core/auth"
	"aulasec/core/incidents"
	"aulasec/core/realtime"
	"aulasec/core/store"
)

// BackgroundWorker is anything with a lifecycle tied to the server's.
type BackgroundWorker interface {
	Start()
	Stop()
}

type ServerDeps struct {
	Cfg          *config.AppConfig
	Logger       *logrus.Logger
	Sessions     store.WSSessionStore
	Incidents    store.IncidentsStore
	Users        store.UsersStore
	Registry     *realtime.Registry
	Dispatcher   *realtime.Dispatcher
	Hub          *realtime.Hub
	IncidentsSvc *incidents.Service
	Verifier     *auth.TokenVerifier
}

type Server struct {
	cfg          *config.AppConfig
	logger       *logrus.Logger
	sessions     store.WSSessionStore
	incidents    store.IncidentsStore
	users        store.UsersStore
	registry     *realtime.Registry
	dispatcher   *realtime.Dispatcher
	hub          *realtime.Hub
	incidentsSvc *incidents.Service
	verifier     *auth.TokenVerifier

	httpServer *http.Server
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		cfg:          deps.Cfg,
		logger:       deps.Logger,
		sessions:     deps.Sessions,
		incidents:    deps.Incidents,
		users:        deps.Users,
		registry:     deps.Registry,
		dispatcher:   deps.Dispatcher,
		hub:          deps.Hub,
		incidentsSvc: deps.IncidentsSvc,
		verifier:     deps.Verifier,
	}
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		incidents: handlers.NewIncidentsHandler(s.incidentsSvc, s.incidents, s.logger),
		realtime:  handlers.NewRealtimeHandler(s.cfg, s.registry, s.hub, s.verifier, s.logger),
	}
}

// Run serves HTTP until the context is cancelled, then drains.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	if s.logger != nil {
		s.logger.Infof("listening on %s", s.cfg.ListenAddr)
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
