// Package gate decides whether a request may reach a protected route: a
// static API key in one of three locations, or else a valid session cookie.
package gate

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"hemodilab_backend/internal/auth/session"
	"hemodilab_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// publicPrefixes never require credentials.
var publicPrefixes = []string{
	"/api/auth",
	"/api/register",
	"/api/health",
	"/health",
}

// Verifier resolves a raw session token.
type Verifier interface {
	Verify(ctx context.Context, raw string) (session.Claims, error)
}

// Gate checks API keys and sessions.
type Gate struct {
	apiKey     string
	cookieName string
	sessions   Verifier
}

// New creates a Gate. An empty apiKey disables API-key access entirely.
func New(apiKey, cookieName string, sessions Verifier) *Gate {
	return &Gate{apiKey: apiKey, cookieName: cookieName, sessions: sessions}
}

// IsPublic reports whether path is on the fixed allow-list.
func IsPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// IsAuthorized reports whether r carries a valid API key or session.
func (g *Gate) IsAuthorized(r *http.Request) bool {
	if g.hasValidAPIKey(r) {
		return true
	}
	_, ok := g.Session(r)
	return ok
}

// hasValidAPIKey checks Authorization: Bearer, then X-API-Key, then the
// api_key query parameter. The first location present decides.
func (g *Gate) hasValidAPIKey(r *http.Request) bool {
	if g.apiKey == "" {
		return false
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return g.matches(strings.TrimPrefix(header, bearerPrefix))
	}
	if header := r.Header.Get("X-API-Key"); header != "" {
		return g.matches(header)
	}
	if query := r.URL.Query().Get("api_key"); query != "" {
		return g.matches(query)
	}
	return false
}

func (g *Gate) matches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.apiKey)) == 1
}

// Session returns the verified session carried by r's cookie.
func (g *Gate) Session(r *http.Request) (session.Claims, bool) {
	if g.sessions == nil {
		return session.Claims{}, false
	}
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return session.Claims{}, false
	}
	claims, err := g.sessions.Verify(r.Context(), cookie.Value)
	if err != nil {
		return session.Claims{}, false
	}
	return claims, true
}

// Require aborts with 401 unless the request is public or authorized.
func (g *Gate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		if claims, ok := g.Session(c.Request); ok {
			httpkit.SetIdentity(c, identityFrom(claims))
			c.Next()
			return
		}
		if g.hasValidAPIKey(c.Request) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "Unauthorized"})
	}
}

func identityFrom(claims session.Claims) httpkit.SessionIdentity {
	return httpkit.SessionIdentity{
		ID:        claims.UserID(),
		UserEmail: claims.Email,
		UserName:  claims.Name,
	}
}
