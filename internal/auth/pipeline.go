package auth

import (
	"context"
	"errors"
)

// Credentials is the raw authentication material extracted from a request.
// Any subset of fields may be populated.
type Credentials struct {
	BearerToken string
	APIKey      string
	Email       string
	Password    string
}

func (c Credentials) empty() bool {
	return c.BearerToken == "" && c.APIKey == "" && c.Email == "" && c.Password == ""
}

// Resolver establishes a principal from request credentials by trying each
// mechanism in a fixed order: bearer token, API key, then email/password.
// The first success wins; when every presented mechanism fails the
// individual failures are joined so logs keep the full picture while callers
// still see one authentication failure.
type Resolver struct {
	tokens      *TokenService
	keys        *ApiKeyValidator
	credentials *CredentialValidator
}

// NewResolver constructs the resolution pipeline. Validators may be nil when
// a mechanism is not deployed.
func NewResolver(tokens *TokenService, keys *ApiKeyValidator, credentials *CredentialValidator) *Resolver {
	return &Resolver{tokens: tokens, keys: keys, credentials: credentials}
}

// Resolve short-circuits on the first validator that succeeds.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (Principal, error) {
	if creds.empty() {
		return Principal{}, ErrUnauthenticated
	}

	var failures []error

	if creds.BearerToken != "" && r.tokens != nil {
		principal, err := r.tokens.Verify(creds.BearerToken)
		if err == nil {
			return principal, nil
		}
		failures = append(failures, err)
	}
	if creds.APIKey != "" && r.keys != nil {
		principal, err := r.keys.Authenticate(ctx, creds.APIKey)
		if err == nil {
			return principal, nil
		}
		failures = append(failures, err)
	}
	if creds.Email != "" && r.credentials != nil {
		principal, err := r.credentials.Authenticate(ctx, creds.Email, creds.Password)
		if err == nil {
			return principal, nil
		}
		failures = append(failures, err)
	}

	if len(failures) == 0 {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{}, errors.Join(failures...)
}
