package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	svc, err := NewTokenService("unit-test-secret", opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	issued := UserPrincipal("user-42", "user@example.com", "role-1", "MARKETING_STAFF")

	token, expiresAt, err := svc.Issue(issued)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	verified, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified != issued {
		t.Fatalf("round trip mismatch: issued %+v verified %+v", issued, verified)
	}
}

func TestTokenExpiredIsDistinct(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(t,
		WithTokenTTL(time.Minute),
		WithTokenClock(func() time.Time { return now }),
	)
	token, _, err := svc.Issue(UserPrincipal("user-42", "", "role-1", ""))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Move the clock past expiry.
	now = now.Add(2 * time.Minute)
	_, err = svc.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenTamperFailsInvalid(t *testing.T) {
	svc := newTestTokenService(t)
	token, _, err := svc.Issue(UserPrincipal("user-42", "", "role-1", ""))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := map[string]string{
		"flipped payload byte": flipPayload(token),
		"truncated":            token[:len(token)-4],
		"garbage":              "not.a.token",
		"empty":                "",
	}
	for name, bad := range cases {
		if _, err := svc.Verify(bad); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestTokenWrongSecretFailsInvalid(t *testing.T) {
	issuer := newTestTokenService(t)
	token, _, err := issuer.Issue(UserPrincipal("user-42", "", "role-1", ""))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, err := NewTokenService("a-different-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenRequiresUserPrincipal(t *testing.T) {
	svc := newTestTokenService(t)
	if _, _, err := svc.Issue(APIKeyPrincipal("company-7", "key-1")); err == nil {
		t.Fatal("expected error issuing token for api key principal")
	}
	if _, _, err := svc.Issue(Principal{}); err == nil {
		t.Fatal("expected error issuing token for zero principal")
	}
}

func flipPayload(token string) string {
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)
	return strings.Join(parts, ".")
}
