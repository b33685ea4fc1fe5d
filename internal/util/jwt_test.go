package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWTManagerGenerateAndParse(t *testing.T) {
	manager := NewJWTManager("top-secret", time.Minute)

	accountID := uuid.New()
	token, expiresAt, err := manager.Generate(accountID)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token to be non-empty")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	got, err := claims.AccountID()
	if err != nil || got != accountID {
		t.Fatalf("expected account id %s, got %s (%v)", accountID, got, err)
	}
	if claims.Issuer != tokenIssuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestJWTManagerTokensAreDistinct(t *testing.T) {
	manager := NewJWTManager("top-secret", time.Minute)
	id := uuid.New()
	a, _, _ := manager.Generate(id)
	b, _, _ := manager.Generate(id)
	if a == b {
		t.Fatalf("expected distinct tokens for separate logins")
	}
}

func TestJWTManagerParseExpiredToken(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)
	token, _, err := manager.Generate(uuid.New())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	manager.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := manager.Parse(token); err == nil {
		t.Fatalf("expected parse error for expired token")
	}
}

func TestJWTManagerRejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWTManager("one", time.Minute).Generate(uuid.New())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := NewJWTManager("two", time.Minute).Parse(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestJWTManagerRejectsForeignIssuer(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWTManager("secret", time.Minute).Parse(token); err == nil {
		t.Fatalf("expected issuer error")
	}
}
