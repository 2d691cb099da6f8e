package httpkit

import (
	"context"
	"net/http"

	"hemodilab_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	// ContextSessionKey is the gin context key for the resolved session identity.
	ContextSessionKey = "session"
)

// Identity represents the signed-in user behind a request.
// Handlers read it without depending on how the session was carried.
type Identity interface {
	UserID() string
	Email() string
	Name() string
	IsAuthenticated() bool
}

// SessionIdentity is the concrete Identity stored by the session middleware.
type SessionIdentity struct {
	ID        string
	UserEmail string
	UserName  string
}

func (s SessionIdentity) UserID() string        { return s.ID }
func (s SessionIdentity) Email() string         { return s.UserEmail }
func (s SessionIdentity) Name() string          { return s.UserName }
func (s SessionIdentity) IsAuthenticated() bool { return s.ID != "" }

type anonymous struct{}

func (anonymous) UserID() string        { return "" }
func (anonymous) Email() string         { return "" }
func (anonymous) Name() string          { return "" }
func (anonymous) IsAuthenticated() bool { return false }

// SetIdentity stores id on the gin context and tags the request context
// with the user ID for logging.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ContextSessionKey, id)
	if id.IsAuthenticated() && c.Request != nil {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.UserIDKey, id.UserID()))
	}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if no session was resolved.
func GetIdentity(c *gin.Context) Identity {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return anonymous{}
	}
	id, ok := value.(Identity)
	if !ok {
		return anonymous{}
	}
	return id
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return nil
	}
	return id
}
