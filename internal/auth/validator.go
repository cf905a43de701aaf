package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"backoffice-api/internal/domain"
	"backoffice-api/internal/observability"
	"backoffice-api/internal/token"
)

// Identity is the authenticated result of a successful validation.
type Identity struct {
	OwnerID        string
	LoginSessionID string
	CSRFSessionID  string
}

// Policy controls the validator's side effects on terminal failure.
// The request gate validates with both flags set; callers that render
// their own responses (or must keep cookies) turn them off.
type Policy struct {
	SendResponseOnFail bool
	ClearCookiesOnFail bool
}

// Validator runs the credential verification pipeline against the token
// codec and the two session stores. It never panics past its boundary:
// every path produces either an Identity or a tagged Failure.
type Validator struct {
	codec      *token.Codec
	loginStore domain.SessionStore
	csrfStore  domain.SessionStore
}

func NewValidator(codec *token.Codec, loginStore, csrfStore domain.SessionStore) *Validator {
	return &Validator{
		codec:      codec,
		loginStore: loginStore,
		csrfStore:  csrfStore,
	}
}

// resolved tracks session ids identified during evaluation so that
// failure cleanup can revoke them immediately.
type resolved struct {
	loginSessionID string
	csrfSessionID  string
}

// Validate runs the state machine over the presented credentials. On
// success it returns the authenticated identity. On terminal failure it
// deletes the resolved sessions, clears cookies and writes the failure
// envelope per policy, then returns the failure.
func (v *Validator) Validate(ctx context.Context, w http.ResponseWriter, creds Credentials, policy Policy) (*Identity, *Failure) {
	identity, failure, ids := v.evaluate(ctx, creds)
	if failure != nil {
		v.onAuthFailure(ctx, w, failure, ids, policy)
		observability.AuthValidationsTotal.WithLabelValues(string(failure.Type)).Inc()
		return nil, failure
	}
	observability.AuthValidationsTotal.WithLabelValues("success").Inc()
	return identity, nil
}

// evaluate applies the validation rules in order; the first matching
// rule wins and no further checks run.
func (v *Validator) evaluate(ctx context.Context, creds Credentials) (*Identity, *Failure, resolved) {
	var ids resolved

	present := 0
	for _, part := range []string{creds.Token, creds.CSRFCookie, creds.CSRFHeader} {
		if part != "" {
			present++
		}
	}

	// Nothing presented: nothing to revoke either.
	if present == 0 {
		return nil, &Failure{Type: TypeNotLoggedIn, Message: "not logged in"}, ids
	}

	// A strict subset of the three parts is a hostile or broken-client
	// signal; resolve whatever is revocable so cleanup can delete it.
	if present < 3 {
		if creds.Token != "" {
			if sessionID, err := v.codec.Verify(creds.Token); err == nil {
				ids.loginSessionID = sessionID
			}
		}
		if creds.CSRFHeader != "" {
			ids.csrfSessionID = creds.CSRFHeader
		}
		return nil, &Failure{
			Type:    TypeIncompleteAuth,
			Message: "incomplete credentials: missing " + strings.Join(missingParts(creds), ", "),
		}, ids
	}

	loginSessionID, err := v.codec.Verify(creds.Token)
	if err != nil {
		return nil, &Failure{Type: TypeVerification, Message: "credential verification failed"}, ids
	}
	ids.loginSessionID = loginSessionID
	// The header value is the csrf store key, so from here on every
	// terminal failure revokes the presented csrf session too, even the
	// ones decided before its lookup runs.
	ids.csrfSessionID = creds.CSRFHeader

	loginSession, err := v.loginStore.Find(ctx, loginSessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, &Failure{Type: TypeLoginSessionNotFound, Message: "login session not found"}, ids
	}
	if err != nil {
		return nil, &Failure{Type: TypeDatabase, Message: "session lookup failed"}, ids
	}

	now := time.Now()
	if loginSession.Expired(now) {
		return nil, &Failure{Type: TypeSessionExpired, Message: "session expired"}, ids
	}
	if loginSession.Canceled {
		return nil, &Failure{Type: TypeSessionCanceled, Message: "session canceled"}, ids
	}

	// The CSRF session is looked up by the HEADER value, never by
	// comparing header against cookie: the cookie read by the network
	// layer and the header set by client script can legitimately come
	// from different rotation generations while requests overlap. The
	// security property holds because the cookie value IS the store key,
	// so an attacker who cannot read the cookie cannot name the session.
	csrfSession, err := v.csrfStore.Find(ctx, creds.CSRFHeader)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, &Failure{Type: TypeCSRFSessionNotFound, Message: "csrf session not found"}, ids
	}
	if err != nil {
		return nil, &Failure{Type: TypeDatabase, Message: "session lookup failed"}, ids
	}

	if csrfSession.Expired(now) {
		return nil, &Failure{Type: TypeSessionExpired, Message: "session expired"}, ids
	}

	if csrfSession.OwnerID != loginSession.OwnerID {
		return nil, &Failure{Type: TypeVerification, Message: "credential verification failed"}, ids
	}

	return &Identity{
		OwnerID:        loginSession.OwnerID,
		LoginSessionID: loginSession.ID,
		CSRFSessionID:  csrfSession.ID,
	}, nil, ids
}

// onAuthFailure performs the terminal-failure side effects. All cleanup
// is best-effort: a store error here is logged and must not change the
// already-decided outcome. Deletions are immediate, not deferred: a
// failed validation must not leave a revocable session alive.
func (v *Validator) onAuthFailure(ctx context.Context, w http.ResponseWriter, failure *Failure, ids resolved, policy Policy) {
	if failure.Type != TypeNotLoggedIn {
		if policy.ClearCookiesOnFail && w != nil {
			ClearCredentialCookies(w)
		}
		if ids.loginSessionID != "" {
			v.cleanupDelete(ctx, v.loginStore, ids.loginSessionID, "login")
		}
		if ids.csrfSessionID != "" {
			v.cleanupDelete(ctx, v.csrfStore, ids.csrfSessionID, "csrf")
		}
	}

	if policy.SendResponseOnFail && w != nil {
		failure.WriteResponse(w)
	}
}

func (v *Validator) cleanupDelete(ctx context.Context, store domain.SessionStore, id, kind string) {
	err := store.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		slog.Error("auth failure cleanup could not delete session",
			slog.String("kind", kind),
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func missingParts(creds Credentials) []string {
	var missing []string
	if creds.Token == "" {
		missing = append(missing, fmt.Sprintf("%s cookie", TokenCookieName))
	}
	if creds.CSRFCookie == "" {
		missing = append(missing, fmt.Sprintf("%s cookie", CSRFCookieName))
	}
	if creds.CSRFHeader == "" {
		missing = append(missing, fmt.Sprintf("%s header", CSRFHeaderName))
	}
	return missing
}
