package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"aulasec/config"
	"aulasec/core/auth"
	"aulasec/core/realtime"
)

// RealtimeHandler owns the websocket endpoint: it resolves the connection's
// identity, upgrades the socket, registers the session and tears everything
// down when the peer goes away.
type RealtimeHandler struct {
	cfg      *config.AppConfig
	registry *realtime.Registry
	hub      *realtime.Hub
	verifier *auth.TokenVerifier
	logger   *logrus.Logger
}

func NewRealtimeHandler(cfg *config.AppConfig, registry *realtime.Registry, hub *realtime.Hub, verifier *auth.TokenVerifier, logger *logrus.Logger) *RealtimeHandler {
	return &RealtimeHandler{cfg: cfg, registry: registry, hub: hub, verifier: verifier, logger: logger}
}

func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.resolveIdentity(r)
	if err != nil {
		status := http.StatusBadRequest
		if err == auth.ErrAnonymousDenied {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("websocket upgrade failed: %v", err)
		}
		return
	}

	// Attach before the session row becomes visible: a fan-out selecting
	// the row must always find a live socket behind it, otherwise it would
	// evict a connection that only just arrived.
	connectionID := uuid.Must(uuid.NewV4()).String()
	h.hub.Attach(connectionID, conn)
	if err := h.registry.Register(r.Context(), connectionID, identity); err != nil {
		if h.logger != nil {
			h.logger.Errorf("register %s: %v", connectionID, err)
		}
		h.hub.Detach(connectionID)
		conn.Close()
		return
	}

	go h.readLoop(connectionID, conn)
}

// readLoop drains client frames until the peer closes or errors out.
// Inbound payloads are not part of the protocol and are discarded; the loop
// exists to answer control frames and to observe disconnection.
func (h *RealtimeHandler) readLoop(connectionID string, conn net.Conn) {
	defer func() {
		h.hub.Detach(connectionID)
		if err := h.registry.Unregister(context.Background(), connectionID); err != nil && h.logger != nil {
			h.logger.Errorf("unregister %s: %v", connectionID, err)
		}
		conn.Close()
	}()
	for {
		if _, _, err := wsutil.ReadClientData(conn); err != nil {
			if h.logger != nil {
				h.logger.Infof("session %s closed: %v", connectionID, err)
			}
			return
		}
	}
}

// resolveIdentity turns the request's query parameters into an explicit
// identity decision before any session state is created.
func (h *RealtimeHandler) resolveIdentity(r *http.Request) (auth.Identity, error) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("user_id"))
	role := strings.TrimSpace(q.Get("rol"))
	token := strings.TrimSpace(q.Get("token"))

	if h.cfg.IsQueryIdentityMode() {
		if userID == "" || role == "" {
			return auth.Identity{}, auth.ErrMissingIdentity
		}
		return auth.Authenticated(userID, role, token), nil
	}

	if token != "" && h.verifier != nil {
		identity, err := h.verifier.Verify(token)
		if err == nil {
			return identity, nil
		}
		if h.logger != nil {
			h.logger.Warnf("connection token rejected: %v", err)
		}
	}
	if !h.cfg.Realtime.AllowAnonymous {
		return auth.Identity{}, auth.ErrAnonymousDenied
	}
	return auth.Anonymous(h.cfg.Realtime.DefaultRole), nil
}
