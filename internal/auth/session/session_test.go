package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sessionCfg struct {
	secret string
	ttl    time.Duration
}

func (c sessionCfg) GetSessionSecret() string     { return c.secret }
func (c sessionCfg) GetSessionTTL() time.Duration { return c.ttl }
func (c sessionCfg) GetSessionCookieName() string { return "hemodilab_session" }
func (c sessionCfg) GetSessionCookieSecure() bool { return false }
func (c sessionCfg) IsDemoAuth() bool             { return true }

func newManager(revoked Revocations) *Manager {
	return NewManager(sessionCfg{secret: "test-secret", ttl: 15 * time.Minute}, revoked)
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager(nil)

	raw, issued, err := m.Issue("user-1", "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Email != "ada@example.com" || claims.Name != "Ada" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID != issued.ID || claims.Type != TokenType {
		t.Fatalf("expected jti and type to survive, got %+v", claims)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other := NewManager(sessionCfg{secret: "other-secret", ttl: time.Minute}, nil)
	raw, _, err := other.Issue("user-1", "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := newManager(nil).Verify(context.Background(), raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := newManager(nil).Verify(context.Background(), ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty token, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newManager(nil)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, _, err := m.Issue("user-1", "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now
	if _, err := m.Verify(context.Background(), raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected expired token to be invalid, got %v", err)
	}
}

func TestRevokeInMemory(t *testing.T) {
	m := newManager(nil)
	raw, claims, _ := m.Issue("user-1", "Ada", "ada@example.com")

	if err := m.Revoke(context.Background(), claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := m.Verify(context.Background(), raw); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
}

func TestRevokeInRedisExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	m := newManager(NewRedisRevocations(client))
	raw, claims, _ := m.Issue("user-1", "Ada", "ada@example.com")

	if err := m.Revoke(context.Background(), claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := m.Verify(context.Background(), raw); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}

	key := revokedKeyPrefix + claims.ID
	if ttl := mr.TTL(key); ttl <= 0 || ttl > 15*time.Minute {
		t.Fatalf("expected revocation to expire with the session, got ttl %s", ttl)
	}

	mr.FastForward(16 * time.Minute)
	if revoked, _ := NewRedisRevocations(client).IsRevoked(context.Background(), claims.ID); revoked {
		t.Fatal("expected revocation entry to expire")
	}
}

func TestMemoryRevocationsExpire(t *testing.T) {
	list := NewMemoryRevocations()
	base := time.Now()
	list.now = func() time.Time { return base }

	_ = list.Revoke(context.Background(), "a", time.Minute)
	if revoked, _ := list.IsRevoked(context.Background(), "a"); !revoked {
		t.Fatal("expected id to be revoked")
	}

	list.now = func() time.Time { return base.Add(2 * time.Minute) }
	if revoked, _ := list.IsRevoked(context.Background(), "a"); revoked {
		t.Fatal("expected revocation to lapse")
	}
}
