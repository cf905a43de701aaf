package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"backoffice-api/internal/domain"
	"backoffice-api/internal/token"
)

// Credentials minted by the issuer for one rotation generation.
type IssuedCredentials struct {
	Token          string
	CSRFValue      string
	LoginSessionID string
	CSRFSessionID  string
}

// Issuer creates fresh login/CSRF session pairs. Each successful
// authenticated request replaces its pair with a new one, bounding how
// long any single credential pair stays valid.
type Issuer struct {
	codec      *token.Codec
	loginStore domain.SessionStore
	csrfStore  domain.SessionStore
	loginTTL   time.Duration
	csrfTTL    time.Duration
}

func NewIssuer(codec *token.Codec, loginStore, csrfStore domain.SessionStore, loginTTL, csrfTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		loginStore: loginStore,
		csrfStore:  csrfStore,
		loginTTL:   loginTTL,
		csrfTTL:    csrfTTL,
	}
}

// Issue creates one login session and one CSRF session for the owner
// and signs a token naming the login session. If any step fails, the
// sessions already created are deleted again before the error returns,
// so there are no unreported partial writes.
func (i *Issuer) Issue(ctx context.Context, ownerID string) (*IssuedCredentials, error) {
	if ownerID == "" {
		return nil, errors.New("owner id must not be empty")
	}

	loginSession, err := i.loginStore.Create(ctx, ownerID, i.loginTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create login session: %w", err)
	}

	csrfSession, err := i.csrfStore.Create(ctx, ownerID, i.csrfTTL)
	if err != nil {
		i.rollback(ctx, i.loginStore, loginSession.ID, "login")
		return nil, fmt.Errorf("failed to create csrf session: %w", err)
	}

	signed, err := i.codec.Issue(loginSession.ID)
	if err != nil {
		i.rollback(ctx, i.loginStore, loginSession.ID, "login")
		i.rollback(ctx, i.csrfStore, csrfSession.ID, "csrf")
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedCredentials{
		Token:          signed,
		CSRFValue:      csrfSession.ID,
		LoginSessionID: loginSession.ID,
		CSRFSessionID:  csrfSession.ID,
	}, nil
}

func (i *Issuer) rollback(ctx context.Context, store domain.SessionStore, id, kind string) {
	if err := store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		slog.Error("issuer rollback could not delete session",
			slog.String("kind", kind),
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}
