package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"aulasec/core/store"
)

// SessionGaugeWorker periodically refreshes the live-session gauge from the
// session store. Purely observational: it never evicts sessions, cleanup
// stays with the dispatcher.
type SessionGaugeWorker struct {
	sessions store.WSSessionStore
	logger   *logrus.Logger
	cron     *cron.Cron
	interval time.Duration
}

func NewSessionGaugeWorker(sessions store.WSSessionStore, intervalSeconds int, logger *logrus.Logger) *SessionGaugeWorker {
	if intervalSeconds <= 0 {
		intervalSeconds = 30
	}
	return &SessionGaugeWorker{
		sessions: sessions,
		logger:   logger,
		cron:     cron.New(),
		interval: time.Duration(intervalSeconds) * time.Second,
	}
}

func (w *SessionGaugeWorker) Start() {
	spec := fmt.Sprintf("@every %s", w.interval)
	_, err := w.cron.AddFunc(spec, w.refresh)
	if err != nil {
		if w.logger != nil {
			w.logger.Errorf("session gauge schedule: %v", err)
		}
		return
	}
	w.cron.Start()
	w.refresh()
}

func (w *SessionGaugeWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *SessionGaugeWorker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	counts, err := w.sessions.CountByRole(ctx)
	if err != nil {
		if w.logger != nil {
			w.logger.Warnf("session gauge refresh: %v", err)
		}
		return
	}
	SetLiveSessions(counts)
}
