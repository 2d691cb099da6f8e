// Package session issues and verifies the signed session tokens carried in
// the session cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hemodilab_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is the value of the type claim on session tokens.
const TokenType = "session"

var (
	ErrInvalid = errors.New("session invalid")
	ErrRevoked = errors.New("session revoked")
)

// Claims are the JWT claims of a session token.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the session.
func (c Claims) UserID() string { return c.Subject }

// Expiry returns the expiry time, or the zero time when unset.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Manager signs, verifies and revokes session tokens.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked Revocations
	now     func() time.Time
}

// NewManager creates a Manager. revoked may be nil, in which case an
// in-memory list is used.
func NewManager(cfg config.SessionConfig, revoked Revocations) *Manager {
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}
	return &Manager{
		secret:  []byte(cfg.GetSessionSecret()),
		ttl:     cfg.GetSessionTTL(),
		revoked: revoked,
		now:     time.Now,
	}
}

// TTL returns the lifetime of issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new session for the given user.
func (m *Manager) Issue(userID, name, email string) (string, Claims, error) {
	now := m.now()
	claims := Claims{
		Name:  name,
		Email: email,
		Type:  TokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

// Verify parses raw and checks signature, expiry, type and revocation.
func (m *Manager) Verify(ctx context.Context, raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrInvalid
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Type != TokenType || claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrInvalid
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Claims{}, ErrRevoked
	}
	return claims, nil
}

// Revoke blocks claims for the rest of its lifetime.
func (m *Manager) Revoke(ctx context.Context, claims Claims) error {
	remaining := claims.Expiry().Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	return m.revoked.Revoke(ctx, claims.ID, remaining)
}
