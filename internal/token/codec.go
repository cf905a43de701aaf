// Package token signs and verifies the opaque bearer credential handed
// to clients. The token embeds exactly one claim of interest: the login
// session id. Expiry is never enforced token-side; the referenced
// store record decides validity, so an expired-but-still-presented
// token yields "session expired" rather than "not logged in".
package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned for any verification failure: bad
// signature, malformed payload, or unexpected algorithm. No further
// detail is exposed to callers.
var ErrTokenInvalid = errors.New("invalid token")

// Codec issues and verifies signed session tokens. It is stateless and
// safe for concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue signs a token naming the given login session id.
func (c *Codec) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id must not be empty")
	}

	claims := jwt.RegisteredClaims{
		Subject: sessionID,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks the token signature and returns the embedded login
// session id. Fails closed: every parse or signature problem maps to
// ErrTokenInvalid.
func (c *Codec) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims

	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}

	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
