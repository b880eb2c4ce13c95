package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// User is a read-mostly directory entry consumed for authorization checks
// and reporter name resolution.
type User struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName joins the name fields, falling back to the user id.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	return u.UserID
}

type UsersStore interface {
	Get(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, user *User) error
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

func (s *usersStore) Get(ctx context.Context, userID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, role, first_name, last_name, email, created_at
		FROM users WHERE user_id = $1`, userID)
	user := &User{}
	err := row.Scan(&user.UserID, &user.Role, &user.FirstName, &user.LastName, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *usersStore) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users(user_id, role, first_name, last_name, email, created_at)
		VALUES($1,$2,$3,$4,$5,$6)`,
		user.UserID, user.Role, user.FirstName, user.LastName, user.Email, user.CreatedAt.UTC())
	return err
}
