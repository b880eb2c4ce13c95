package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"aulasec/core/auth"
	"aulasec/core/store"
)

// Registry tracks which connections are online and who they belong to.
// Registration is an idempotent upsert keyed by connection id; unregistration
// never fails on an absent row, which lets the dispatcher use it as cleanup.
type Registry struct {
	sessions store.WSSessionStore
	logger   *logrus.Logger
}

func NewRegistry(sessions store.WSSessionStore, logger *logrus.Logger) *Registry {
	return &Registry{sessions: sessions, logger: logger}
}

// Register stores the session row for an already-resolved identity. The
// identity decision (authenticated vs anonymous fallback) belongs to the
// caller; the registry only refuses a session with no role at all.
func (r *Registry) Register(ctx context.Context, connectionID string, identity auth.Identity) error {
	if strings.TrimSpace(connectionID) == "" {
		return fmt.Errorf("connection id is required")
	}
	if strings.TrimSpace(identity.Role) == "" {
		return fmt.Errorf("role is required")
	}
	sess := &store.WSSession{
		ConnectionID: connectionID,
		UserID:       identity.UserID,
		Role:         identity.Role,
		AuthToken:    identity.Token,
		ConnectedAt:  time.Now().UTC(),
	}
	if err := r.sessions.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if r.logger != nil {
		if identity.Anonymous {
			r.logger.Warnf("registered anonymous session %s under default role %q", connectionID, identity.Role)
		} else {
			r.logger.Infof("registered session %s user=%s role=%s", connectionID, identity.UserID, identity.Role)
		}
	}
	return nil
}

// Unregister removes the session row. Removing an unknown id is a no-op.
func (r *Registry) Unregister(ctx context.Context, connectionID string) error {
	if err := r.sessions.DeleteSession(ctx, connectionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if r.logger != nil {
		r.logger.Infof("unregistered session %s", connectionID)
	}
	return nil
}
