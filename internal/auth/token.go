package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 15 * time.Minute

// TokenService issues and verifies signed bearer tokens. The signing secret
// is fixed at construction and immutable for the process lifetime.
// Verification never touches a store: the token contents are the sole source
// of identity until expiry, which makes role changes visible only after the
// token's TTL has run out.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Claims are the JWT claims carried by warden access tokens.
type Claims struct {
	Email    string `json:"email,omitempty"`
	RoleID   string `json:"role_id"`
	RoleName string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenOption configures the service.
type TokenOption func(*TokenService)

// WithTokenTTL overrides the default access token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithTokenClock overrides the time source. Useful for expiry tests.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService constructs a TokenService signing with HS256.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	s := &TokenService{
		secret: []byte(secret),
		issuer: "warden",
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a time-bounded token for a user principal.
func (s *TokenService) Issue(principal Principal) (string, time.Time, error) {
	if principal.Kind != KindUser || strings.TrimSpace(principal.UserID) == "" {
		return "", time.Time{}, errors.New("user principal is required")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email:    principal.Email,
		RoleID:   principal.RoleID,
		RoleName: principal.RoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature integrity, then expiry, and returns the embedded
// principal. Tampered or malformed tokens fail with ErrTokenInvalid; a valid
// signature past its expiry fails with ErrTokenExpired so callers can prompt
// re-login instead of rejecting outright.
func (s *TokenService) Verify(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, ErrTokenInvalid
	}
	return UserPrincipal(claims.Subject, claims.Email, claims.RoleID, claims.RoleName), nil
}
