package auth

import (
	"net/http"
	"time"
)

const (
	// TokenCookieName holds the signed token. HTTP-only.
	TokenCookieName = "auth_jwt"
	// CSRFCookieName holds the CSRF session id. Readable by client
	// script, which copies it into the CSRFHeaderName header.
	CSRFCookieName = "auth_csrf"
	// CSRFHeaderName is the request header the client fills from the
	// CSRF cookie. The server never performs this copy.
	CSRFHeaderName = "auth_csrf"
)

// Credentials are the three independently transported credential parts
// of a request.
type Credentials struct {
	Token      string // auth_jwt cookie
	CSRFCookie string // auth_csrf cookie
	CSRFHeader string // auth_csrf header
}

// CredentialsFromRequest extracts the credential parts from a request.
// Missing parts are empty strings.
func CredentialsFromRequest(r *http.Request) Credentials {
	creds := Credentials{
		CSRFHeader: r.Header.Get(CSRFHeaderName),
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		creds.Token = c.Value
	}
	if c, err := r.Cookie(CSRFCookieName); err == nil {
		creds.CSRFCookie = c.Value
	}
	return creds
}

// SetCredentialCookies places a freshly issued token/CSRF pair into
// cookies. The cookie lifetime deliberately exceeds the server-side
// session TTLs so that an expired session is distinguishable from a
// missing cookie.
func SetCredentialCookies(w http.ResponseWriter, token, csrfValue string, lifetime time.Duration) {
	maxAge := int(lifetime.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    csrfValue,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false, // client script must read this to fill the header
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCredentialCookies expires both credential cookies.
func ClearCredentialCookies(w http.ResponseWriter) {
	for _, name := range []string{TokenCookieName, CSRFCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == TokenCookieName,
			Secure:   false,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
