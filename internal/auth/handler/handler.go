package handler

import (
	"net/http"
	"time"

	"hemodilab_backend/internal/auth/service"
	"hemodilab_backend/internal/auth/session"
	"hemodilab_backend/internal/auth/transport"
	"hemodilab_backend/platform/httpkit"
	"hemodilab_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "Invalid request body"
	msgRegistered     = "Registration successful"
	msgSignedOut      = "Signed out"
	msgUserUpdated    = "User updated successfully"
	msgUserDeleted    = "User deleted successfully"
	msgRequiredFields = "Name, email and password are required"
	msgFieldAndValue  = "Field and value required"
)

// SessionReader resolves the session carried by a request.
type SessionReader interface {
	Session(r *http.Request) (session.Claims, bool)
}

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc      *service.Service
	sessions SessionReader
	val      *validator.Validator
	cookie   CookieSettings
}

func New(svc *service.Service, sessions SessionReader, val *validator.Validator, cookie CookieSettings) *Handler {
	return &Handler{svc: svc, sessions: sessions, val: val, cookie: cookie}
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgRequiredFields, nil)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.RegisterResponse{
		Message: msgRegistered,
		User:    transport.UserResponse{Name: user.Name, Email: user.Email},
	})
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	signedIn, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	h.setSessionCookie(c, signedIn.Token, signedIn.Claims.Expiry())
	httpkit.OK(c, transport.FromClaims(signedIn.Claims))
}

func (h *Handler) SignOut(c *gin.Context) {
	if claims, ok := h.sessions.Session(c.Request); ok {
		if httpkit.HandleError(c, h.svc.SignOut(c.Request.Context(), claims)) {
			return
		}
	}

	h.clearSessionCookie(c)
	httpkit.Message(c, msgSignedOut)
}

// Session returns the current session, or an empty object when there is none.
func (h *Handler) Session(c *gin.Context) {
	claims, ok := h.sessions.Session(c.Request)
	if !ok {
		httpkit.OK(c, gin.H{})
		return
	}
	httpkit.OK(c, transport.FromClaims(claims))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFieldAndValue, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Update(c.Request.Context(), id, req.Field, req.Value)) {
		return
	}
	httpkit.Message(c, msgUserUpdated)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}

	if claims, ok := h.sessions.Session(c.Request); ok {
		_ = h.svc.SignOut(c.Request.Context(), claims)
	}
	h.clearSessionCookie(c)
	httpkit.Message(c, msgUserDeleted)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
