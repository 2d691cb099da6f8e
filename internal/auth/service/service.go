package service

import (
	"context"
	"errors"
	"strings"

	"hemodilab_backend/internal/auth/repository"
	"hemodilab_backend/internal/auth/session"
	"hemodilab_backend/platform/apperr"
	"hemodilab_backend/platform/httpkit"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	registerCost = 10
	updateCost   = 12

	minNameLength     = 3
	minPasswordLength = 6

	demoUserID   = "demo-user-123"
	demoUserName = "Demo User"
)

const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

const (
	msgRequiredRegistration = "Name, email and password are required"
	msgUserExists           = "User with this email or name already exists"
	msgRegistrationFailed   = "Registration failed. Please try again."
	msgInvalidCredentials   = "Invalid credentials"
	msgFieldValueRequired   = "Field and value required"
	msgInvalidField         = "Invalid field"
	msgNameTooShort         = "Name must be at least 3 characters"
	msgPasswordTooShort     = "Password must be at least 6 characters"
	msgEmailInUse           = "This email is already in use"
	msgUserNotFound         = "User not found"
	msgInternal             = "Internal server error"
)

// Sessions issues, verifies and revokes session tokens.
type Sessions interface {
	Issue(userID, name, email string) (string, session.Claims, error)
	Revoke(ctx context.Context, claims session.Claims) error
}

// SignedIn is the outcome of a successful sign-in.
type SignedIn struct {
	Token  string
	Claims session.Claims
}

// Service implements registration, sign-in and account maintenance.
type Service struct {
	repo     repository.Repository
	sessions Sessions
	demo     bool
	log      *logger.Logger
}

// New creates an auth service. In demo mode any non-empty credentials sign
// in as a demo user without touching the users table.
func New(repo repository.Repository, sessions Sessions, demo bool, log *logger.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, demo: demo, log: log}
}

// Register creates a user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, name, email, password string) (repository.User, error) {
	name = sanitize.DisplayName(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return repository.User{}, apperr.Validation(msgRequiredRegistration)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), registerCost)
	if err != nil {
		return repository.User{}, apperr.Internal(msgRegistrationFailed, err).WithOp("auth.Register")
	}

	user, err := s.repo.Create(ctx, repository.CreateParams{Name: name, Email: email, PasswordHash: string(hash)})
	if errors.Is(err, repository.ErrDuplicate) {
		s.log.WithContext(ctx).AuthEvent("register", email, false, "duplicate")
		return repository.User{}, apperr.Conflict(msgUserExists)
	}
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("auth.Register", err)
		return repository.User{}, apperr.Internal(msgRegistrationFailed, err).WithOp("auth.Register")
	}

	s.log.WithContext(ctx).AuthEvent("register", email, true, "")
	return user, nil
}

// SignIn checks credentials and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (SignedIn, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.log.WithContext(ctx).AuthEvent("sign_in", email, false, "missing credentials")
		return SignedIn{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if s.demo {
		s.log.WithContext(ctx).AuthEvent("sign_in", email, true, "")
		return s.issue(demoUserID, demoUserName, email)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.WithContext(ctx).AuthEvent("sign_in", email, false, "unknown user")
		return SignedIn{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return SignedIn{}, s.upstream(ctx, "auth.SignIn", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithContext(ctx).AuthEvent("sign_in", email, false, "invalid password")
		return SignedIn{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	s.log.WithContext(ctx).AuthEvent("sign_in", email, true, "")
	return s.issue(user.ID.String(), user.Name, user.Email)
}

// SignOut revokes the session so the token is rejected until it expires.
func (s *Service) SignOut(ctx context.Context, claims session.Claims) error {
	if err := s.sessions.Revoke(ctx, claims); err != nil {
		return apperr.Internal(msgInternal, err).WithOp("auth.SignOut")
	}
	s.log.WithContext(ctx).AuthEvent("sign_out", claims.Email, true, "")
	return nil
}

// Update changes one field of the signed-in user.
func (s *Service) Update(ctx context.Context, id httpkit.Identity, field string, value *string) error {
	if field == "" || value == nil {
		return apperr.Validation(msgFieldValueRequired)
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	switch field {
	case FieldName:
		name := sanitize.DisplayName(*value)
		if len(name) < minNameLength {
			return apperr.Validation(msgNameTooShort)
		}
		err = s.repo.UpdateName(ctx, user.ID, name)
	case FieldEmail:
		email := strings.TrimSpace(*value)
		if email == "" {
			return apperr.Validation(msgFieldValueRequired)
		}
		taken, lookupErr := s.repo.EmailTaken(ctx, email, user.ID)
		if lookupErr != nil {
			return s.upstream(ctx, "auth.Update", lookupErr)
		}
		if taken {
			return apperr.Validation(msgEmailInUse)
		}
		err = s.repo.UpdateEmail(ctx, user.ID, email)
	case FieldPassword:
		if len(*value) < minPasswordLength {
			return apperr.Validation(msgPasswordTooShort)
		}
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*value), updateCost)
		if hashErr != nil {
			return apperr.Internal(msgInternal, hashErr).WithOp("auth.Update")
		}
		err = s.repo.UpdatePassword(ctx, user.ID, string(hash))
	default:
		return apperr.Validation(msgInvalidField)
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgUserNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Validation(msgEmailInUse)
	case err != nil:
		return s.upstream(ctx, "auth.Update", err)
	}
	return nil
}

// Delete removes the signed-in user.
func (s *Service) Delete(ctx context.Context, id httpkit.Identity) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return s.upstream(ctx, "auth.Delete", err)
	}
	s.log.WithContext(ctx).AuthEvent("delete_user", user.Email, true, "")
	return nil
}

// findUser resolves the identity by id, then by email.
func (s *Service) findUser(ctx context.Context, id httpkit.Identity) (repository.User, error) {
	if userID, err := uuid.Parse(id.UserID()); err == nil {
		user, err := s.repo.GetByID(ctx, userID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return repository.User{}, s.upstream(ctx, "auth.findUser", err)
		}
	}

	if id.Email() == "" {
		return repository.User{}, apperr.NotFound(msgUserNotFound)
	}
	user, err := s.repo.GetByEmail(ctx, id.Email())
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return repository.User{}, s.upstream(ctx, "auth.findUser", err)
	}
	return user, nil
}

func (s *Service) issue(userID, name, email string) (SignedIn, error) {
	token, claims, err := s.sessions.Issue(userID, name, email)
	if err != nil {
		return SignedIn{}, apperr.Internal(msgInternal, err).WithOp("auth.SignIn")
	}
	return SignedIn{Token: token, Claims: claims}, nil
}

func (s *Service) upstream(ctx context.Context, op string, err error) error {
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Internal(msgInternal, err).WithOp(op)
}
