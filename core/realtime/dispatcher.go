package realtime

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"aulasec/core/metrics"
	"aulasec/core/rbac"
	"aulasec/core/store"
)

// PushChannel delivers raw bytes to one live connection. Any error means the
// connection is gone.
type PushChannel interface {
	Send(ctx context.Context, connectionID string, data []byte) error
}

// Dispatcher fans a message out to the sessions matching a target. Delivery
// is best-effort and at-most-once: no retries, no ordering, and a failure on
// one session never stops the rest. A failed push evicts that session from
// the registry; this is the only mechanism that keeps the session table free
// of dead rows.
type Dispatcher struct {
	sessions store.WSSessionStore
	registry *Registry
	channel  PushChannel
	logger   *logrus.Logger
}

func NewDispatcher(sessions store.WSSessionStore, registry *Registry, channel PushChannel, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{sessions: sessions, registry: registry, channel: channel, logger: logger}
}

// NotifyRole pushes the message to every session registered under the role.
func (d *Dispatcher) NotifyRole(ctx context.Context, message any, role string) {
	sessions, err := d.sessions.ListByRole(ctx, role)
	if err != nil {
		d.logSelectError("role", role, err)
		return
	}
	d.fanout(ctx, message, sessions)
}

// NotifyUser pushes the message to every session of the user. A user with
// several devices gets one copy per open connection.
func (d *Dispatcher) NotifyUser(ctx context.Context, message any, userID string) {
	sessions, err := d.sessions.ListByUser(ctx, userID)
	if err != nil {
		d.logSelectError("user", userID, err)
		return
	}
	d.fanout(ctx, message, sessions)
}

// NotifyAll broadcasts the message to every registered session.
func (d *Dispatcher) NotifyAll(ctx context.Context, message any) {
	sessions, err := d.sessions.ListAll(ctx)
	if err != nil {
		d.logSelectError("all", "", err)
		return
	}
	d.fanout(ctx, message, sessions)
}

// NotifyAdmins pushes the message to both privileged roles.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, message any) {
	for _, role := range rbac.AdminRoles() {
		d.NotifyRole(ctx, message, role)
	}
}

func (d *Dispatcher) fanout(ctx context.Context, message any, sessions []store.WSSession) {
	if len(sessions) == 0 {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		if d.logger != nil {
			d.logger.Errorf("dispatcher: marshal message: %v", err)
		}
		return
	}
	for _, sess := range sessions {
		if err := d.channel.Send(ctx, sess.ConnectionID, data); err != nil {
			metrics.RecordDelivery("failed")
			if d.logger != nil {
				d.logger.Warnf("dispatcher: push to %s failed, evicting: %v", sess.ConnectionID, err)
			}
			if cleanupErr := d.registry.Unregister(ctx, sess.ConnectionID); cleanupErr != nil && d.logger != nil {
				d.logger.Errorf("dispatcher: evict %s: %v", sess.ConnectionID, cleanupErr)
			}
			continue
		}
		metrics.RecordDelivery("ok")
	}
}

func (d *Dispatcher) logSelectError(kind, target string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Errorf("dispatcher: select sessions by %s %q: %v", kind, target, err)
}
