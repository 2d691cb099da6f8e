package transport

import (
	"time"

	"hemodilab_backend/internal/auth/session"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest changes one field of the signed-in user.
type UpdateUserRequest struct {
	Field string  `json:"field"`
	Value *string `json:"value"`
}

type UserResponse struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type SessionResponse struct {
	User    UserResponse `json:"user"`
	Expires time.Time    `json:"expires"`
}

// FromClaims builds the session payload returned to clients.
func FromClaims(claims session.Claims) SessionResponse {
	return SessionResponse{
		User: UserResponse{
			ID:    claims.UserID(),
			Name:  claims.Name,
			Email: claims.Email,
		},
		Expires: claims.Expiry(),
	}
}
