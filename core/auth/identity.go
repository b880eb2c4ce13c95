package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingIdentity = errors.New("user_id and rol are required")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrAnonymousDenied = errors.New("anonymous connections are not allowed")
)

// Identity is the resolved identity of one websocket connection. The zero
// Anonymous flag distinguishes a verified identity from the configured
// fallback, so callers can log and meter the two paths separately instead of
// silently treating them alike.
type Identity struct {
	UserID    string
	Role      string
	Token     string
	Anonymous bool
}

// Authenticated tags a verified identity.
func Authenticated(userID, role, token string) Identity {
	return Identity{UserID: userID, Role: role, Token: token}
}

// Anonymous tags a connection that failed or skipped identification and was
// admitted under the default role.
func Anonymous(defaultRole string) Identity {
	return Identity{Role: defaultRole, Anonymous: true}
}

// TokenVerifier checks connection tokens signed with a shared HMAC secret.
// The claims carry the same identity vocabulary as the query parameters:
// user_id and rol.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning the identity it asserts.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	if v == nil || len(v.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: verifier not configured", ErrTokenInvalid)
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: unexpected claims", ErrTokenInvalid)
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["rol"].(string)
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(role) == "" {
		return Identity{}, fmt.Errorf("%w: user_id or rol claim missing", ErrTokenInvalid)
	}
	return Authenticated(userID, role, token), nil
}
