package service

import (
	"context"
	"errors"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/domain"
	"backoffice-api/internal/observability"
	"backoffice-api/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// AuthService drives login and logout. Account registration and
// password management live outside this service; only the comparison at
// login happens here.
type AuthService struct {
	userRepo   domain.UserRepository
	loginStore domain.SessionStore
	csrfStore  domain.SessionStore
	issuer     *auth.Issuer
	codec      *token.Codec
}

func NewAuthService(userRepo domain.UserRepository, loginStore, csrfStore domain.SessionStore,
	issuer *auth.Issuer, codec *token.Codec) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		loginStore: loginStore,
		csrfStore:  csrfStore,
		issuer:     issuer,
		codec:      codec,
	}
}

// Login verifies the password and mints a fresh session pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*auth.IssuedCredentials, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(password),
	); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	issued, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	observability.SessionsIssuedTotal.WithLabelValues("login").Inc()
	return issued, user, nil
}

// Logout revokes whatever sessions the presented credentials still
// name. It is best-effort and always succeeds from the client's point
// of view: logging out of a dead session is not an error. Cancellation
// precedes deletion so a concurrent request that already loaded the
// record sees the revocation flag.
func (s *AuthService) Logout(ctx context.Context, creds auth.Credentials) {
	if creds.Token != "" {
		if loginSessionID, err := s.codec.Verify(creds.Token); err == nil {
			s.revoke(ctx, s.loginStore, loginSessionID)
		}
	}
	// The CSRF cookie value is the session id itself.
	if creds.CSRFCookie != "" {
		s.revoke(ctx, s.csrfStore, creds.CSRFCookie)
	}
}

func (s *AuthService) revoke(ctx context.Context, store domain.SessionStore, id string) {
	log := observability.FromContext(ctx)

	if canceler, ok := store.(domain.SessionCanceler); ok {
		if err := canceler.Cancel(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			log.Warn("logout could not cancel session", "session_id", id, "error", err.Error())
		}
	}
	if err := store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		log.Warn("logout could not delete session", "session_id", id, "error", err.Error())
	}
}
