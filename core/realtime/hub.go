package realtime

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// defaultWriteTimeout bounds a frame write when the caller's context carries
// no deadline, so a stalled peer cannot pin the per-conn mutex and stall a
// whole fan-out.
const defaultWriteTimeout = 10 * time.Second

// ErrConnectionGone is returned by Send when the connection id has no live
// socket behind it on this node.
var ErrConnectionGone = errors.New("connection gone")

type hubConn struct {
	conn net.Conn
	mu   sync.Mutex // serializes frames from concurrent notifications
}

// Hub maps connection ids to live websocket conns and implements
// PushChannel over them. Sends to unknown ids fail with ErrConnectionGone so
// the dispatcher evicts the stale registry row.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*hubConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*hubConn)}
}

// Attach binds a freshly upgraded conn to its connection id.
func (h *Hub) Attach(connectionID string, conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connectionID] = &hubConn{conn: conn}
}

// Detach forgets the conn. Safe to call twice.
func (h *Hub) Detach(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connectionID)
}

// Send writes one text frame to the connection, bounded by the context
// deadline when one is set.
func (h *Hub) Send(ctx context.Context, connectionID string, data []byte) error {
	h.mu.RLock()
	hc, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return ErrConnectionGone
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	if err := hc.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return wsutil.WriteServerMessage(hc.conn, ws.OpText, data)
}

// Len reports the number of attached connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
