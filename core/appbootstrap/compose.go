package appbootstrap

import (
	"database/sql"

	"github.com/sirupsen/logrus"

	"aulasec/api"
	"aulasec/config"
	"aulasec/core/auth"
	"aulasec/core/incidents"
	"aulasec/core/metrics"
	"aulasec/core/rbac"
	"aulasec/core/realtime"
	"aulasec/core/store"
)

// Compose wires every component once per process and hands the result to
// the server. No package-level state: everything flows through explicit
// handles.
func Compose(cfg *config.AppConfig, db *sql.DB, logger *logrus.Logger) (*api.Server, []api.BackgroundWorker, error) {
	sessions := store.NewWSSessionStore(db)
	incidentsStore := store.NewIncidentsStore(db)
	users := store.NewUsersStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, nil, err
	}

	hub := realtime.NewHub()
	registry := realtime.NewRegistry(sessions, logger)
	dispatcher := realtime.NewDispatcher(sessions, registry, hub, logger)
	incidentsSvc := incidents.NewService(incidentsStore, users, policy, dispatcher, cfg.Incidents.UnknownReporter, logger)
	verifier := auth.NewTokenVerifier(cfg.Realtime.TokenSecret)

	server := api.NewServer(api.ServerDeps{
		Cfg:          cfg,
		Logger:       logger,
		Sessions:     sessions,
		Incidents:    incidentsStore,
		Users:        users,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Hub:          hub,
		IncidentsSvc: incidentsSvc,
		Verifier:     verifier,
	})

	var workers []api.BackgroundWorker
	if cfg.Metrics.Enabled {
		workers = append(workers, metrics.NewSessionGaugeWorker(sessions, cfg.Metrics.SessionRefreshSeconds, logger))
	}
	return server, workers, nil
}
