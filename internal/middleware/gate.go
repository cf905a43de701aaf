package middleware

import (
	"context"
	"net/http"
	"time"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/domain"
	"backoffice-api/internal/messaging"
	"backoffice-api/internal/observability"
)

type contextKey string

const identityKey contextKey = "identity"

// ExemptPaths is the fixed allowlist of paths that bypass the gate
// entirely: the health/home surface plus the endpoints that mint or
// probe credentials and therefore cannot require them.
var ExemptPaths = map[string]bool{
	"/":                     true,
	"/health":               true,
	"/health/ready":         true,
	"/metrics":              true,
	"/api/v1/auth/login":    true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/logout":   true,
	"/api/v1/auth/check":    true,
}

// Gate guards every non-exempt request: it runs the credential
// validator and, on success, rotates the session pair before forwarding
// the request with identity attached.
type Gate struct {
	validator  *auth.Validator
	issuer     *auth.Issuer
	reaper     *auth.Reaper
	loginStore domain.SessionStore
	csrfStore  domain.SessionStore
	cookieTTL  time.Duration
	events     *messaging.AuthEventPublisher
}

// NewGate wires the request gate. cookieTTL is the credential cookie
// transport lifetime, deliberately longer than the session TTLs.
// events may be nil when no broker is configured; event publishing is
// always best-effort.
func NewGate(validator *auth.Validator, issuer *auth.Issuer, reaper *auth.Reaper,
	loginStore, csrfStore domain.SessionStore, cookieTTL time.Duration,
	events *messaging.AuthEventPublisher) *Gate {
	return &Gate{
		validator:  validator,
		issuer:     issuer,
		reaper:     reaper,
		loginStore: loginStore,
		csrfStore:  csrfStore,
		cookieTTL:  cookieTTL,
		events:     events,
	}
}

// Middleware returns the chi-compatible request gate.
func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ExemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			creds := auth.CredentialsFromRequest(r)
			identity, failure := g.validator.Validate(r.Context(), w, creds, auth.Policy{
				SendResponseOnFail: true,
				ClearCookiesOnFail: true,
			})
			if failure != nil {
				// Response already sent by the validator.
				g.events.PublishRejection(r, string(failure.Type))
				return
			}

			// Retire the presented pair after the grace delay so sibling
			// requests still in flight with the old credentials keep working.
			g.reaper.ScheduleDelete(g.loginStore, identity.LoginSessionID, "login")
			g.reaper.ScheduleDelete(g.csrfStore, identity.CSRFSessionID, "csrf")

			auth.ClearCredentialCookies(w)

			issued, err := g.issuer.Issue(r.Context(), identity.OwnerID)
			if err != nil {
				// The client must not proceed without a valid credential
				// for its next request.
				observability.FromContext(r.Context()).Error("session rotation failed",
					"owner_id", identity.OwnerID,
					"error", err.Error(),
				)
				rotationFailure := &auth.Failure{Type: auth.TypeDatabase, Message: "session rotation failed"}
				rotationFailure.WriteResponse(w)
				g.events.PublishRejection(r, string(rotationFailure.Type))
				return
			}

			auth.SetCredentialCookies(w, issued.Token, issued.CSRFValue, g.cookieTTL)
			observability.SessionRotationsTotal.Inc()
			observability.SessionsIssuedTotal.WithLabelValues("rotation").Inc()
			g.events.PublishRotation(r, identity.OwnerID)

			ctx := WithIdentity(r.Context(), &auth.Identity{
				OwnerID: identity.OwnerID,
				// Downstream handlers see the NEW login session, the one
				// the client will hold after applying its cookies.
				LoginSessionID: issued.LoginSessionID,
				CSRFSessionID:  issued.CSRFSessionID,
			})
			ctx = observability.WithOwnerID(ctx, identity.OwnerID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity attaches an authenticated identity to the context.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity returns the authenticated identity set by the gate.
func GetIdentity(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*auth.Identity)
	return identity, ok
}

// GetOwnerID returns the authenticated principal's id.
func GetOwnerID(ctx context.Context) (string, bool) {
	identity, ok := GetIdentity(ctx)
	if !ok {
		return "", false
	}
	return identity.OwnerID, true
}
