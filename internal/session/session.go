// Package session carries the authenticated identity the sync engine acts
// as. Token issuance and validation happen elsewhere; this package only
// consumes the result.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the session user: read-only input to every outbound command
// and to the durable record key.
type Identity struct {
	Username string
	Email    string
	Token    string
}

var ErrIncomplete = errors.New("session identity requires username and email")

func (id Identity) Validate() error {
	if strings.TrimSpace(id.Username) == "" || strings.TrimSpace(id.Email) == "" {
		return ErrIncomplete
	}
	return nil
}

// TokenExpiry extracts the exp claim from the session token without
// verifying the signature. Verification is the auth service's job; the
// client only wants to warn before the session goes stale. Returns false for
// a missing/opaque token or one without an expiry.
func TokenExpiry(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
