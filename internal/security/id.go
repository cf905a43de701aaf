package security

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewLoginSessionID returns an opaque id for a login session record.
// The id never leaves the server in the clear; it travels only inside
// the signed token.
func NewLoginSessionID() (string, error) {
	return uuid.New().String(), nil
}

// NewCSRFSessionID returns a cryptographically random id for a CSRF
// session. Unlike login session ids it doubles as the client-visible
// credential (cookie value and echoed header), so it carries 256 bits
// of entropy and is returned as a 64-character hex string.
func NewCSRFSessionID() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}
