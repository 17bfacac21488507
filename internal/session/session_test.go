package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestValidateRequiresUsernameAndEmail(t *testing.T) {
	if err := (Identity{Username: "alice", Email: "alice@x.com"}).Validate(); err != nil {
		t.Fatalf("complete identity must validate: %v", err)
	}
	if err := (Identity{Username: "alice"}).Validate(); err == nil {
		t.Fatal("missing email must fail")
	}
	if err := (Identity{Email: "alice@x.com"}).Validate(); err == nil {
		t.Fatal("missing username must fail")
	}
}

func TestTokenExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	got, ok := TokenExpiry(signed)
	if !ok {
		t.Fatal("expected expiry from token")
	}
	if !got.Equal(exp) {
		t.Fatalf("expected %v, got %v", exp, got)
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatal("opaque token must not report an expiry")
	}
	if _, ok := TokenExpiry(""); ok {
		t.Fatal("empty token must not report an expiry")
	}
}

func TestTokenExpiryNoExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, ok := TokenExpiry(signed); ok {
		t.Fatal("token without exp must not report an expiry")
	}
}
