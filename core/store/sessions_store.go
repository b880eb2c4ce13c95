package store

import (
	"context"
	"database/sql"
	"time"
)

// WSSession is one live websocket connection. Rows are written once on
// connect and deleted on disconnect or on a failed push; they are never
// updated in place, a reconnect arrives with a fresh connection id.
type WSSession struct {
	ConnectionID string    `json:"connection_id"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	AuthToken    string    `json:"auth_token,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
}

type WSSessionStore interface {
	SaveSession(ctx context.Context, sess *WSSession) error
	DeleteSession(ctx context.Context, connectionID string) error
	GetSession(ctx context.Context, connectionID string) (*WSSession, error)
	ListByRole(ctx context.Context, role string) ([]WSSession, error)
	ListByUser(ctx context.Context, userID string) ([]WSSession, error)
	ListAll(ctx context.Context) ([]WSSession, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type wsSessionStore struct {
	db *sql.DB
}

func NewWSSessionStore(db *sql.DB) WSSessionStore {
	return &wsSessionStore{db: db}
}

func (s *wsSessionStore) SaveSession(ctx context.Context, sess *WSSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ws_sessions(connection_id, user_id, role, auth_token, connected_at)
		VALUES($1,$2,$3,$4,$5)
		ON CONFLICT(connection_id) DO UPDATE SET
			user_id = excluded.user_id,
			role = excluded.role,
			auth_token = excluded.auth_token,
			connected_at = excluded.connected_at`,
		sess.ConnectionID, sess.UserID, sess.Role, sess.AuthToken, sess.ConnectedAt.UTC())
	return err
}

func (s *wsSessionStore) DeleteSession(ctx context.Context, connectionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ws_sessions WHERE connection_id = $1`, connectionID)
	return err
}

func (s *wsSessionStore) GetSession(ctx context.Context, connectionID string) (*WSSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT connection_id, user_id, role, auth_token, connected_at
		FROM ws_sessions WHERE connection_id = $1`, connectionID)
	sess := &WSSession{}
	err := row.Scan(&sess.ConnectionID, &sess.UserID, &sess.Role, &sess.AuthToken, &sess.ConnectedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *wsSessionStore) ListByRole(ctx context.Context, role string) ([]WSSession, error) {
	return s.list(ctx, `
		SELECT connection_id, user_id, role, auth_token, connected_at
		FROM ws_sessions WHERE role = $1`, role)
}

func (s *wsSessionStore) ListByUser(ctx context.Context, userID string) ([]WSSession, error) {
	return s.list(ctx, `
		SELECT connection_id, user_id, role, auth_token, connected_at
		FROM ws_sessions WHERE user_id = $1`, userID)
}

func (s *wsSessionStore) ListAll(ctx context.Context) ([]WSSession, error) {
	return s.list(ctx, `
		SELECT connection_id, user_id, role, auth_token, connected_at
		FROM ws_sessions`)
}

func (s *wsSessionStore) list(ctx context.Context, query string, args ...any) ([]WSSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WSSession
	for rows.Next() {
		var sess WSSession
		if err := rows.Scan(&sess.ConnectionID, &sess.UserID, &sess.Role, &sess.AuthToken, &sess.ConnectedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *wsSessionStore) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM ws_sessions GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}
