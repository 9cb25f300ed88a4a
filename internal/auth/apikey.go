package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ApiKeyValidator authenticates requests by a presented company API key. The
// validator is side-effect free: it returns a structured outcome and leaves
// audit recording to the enclosing request pipeline, so every call stays
// independently testable.
type ApiKeyValidator struct {
	store ApiKeyStore
	now   Clock
}

// NewApiKeyValidator constructs a validator over the key store.
func NewApiKeyValidator(store ApiKeyStore, now Clock) (*ApiKeyValidator, error) {
	if store == nil {
		return nil, errors.New("api key store is required")
	}
	if now == nil {
		now = time.Now
	}
	return &ApiKeyValidator{store: store, now: now}, nil
}

// Authenticate resolves the key value and checks revocation and expiry in
// that order. The result is a pure function of key state: unknown value,
// revoked, expired and valid keys each map to one outcome, with no state
// mutated across repeated calls.
func (v *ApiKeyValidator) Authenticate(ctx context.Context, keyValue string) (Principal, error) {
	keyValue = strings.TrimSpace(keyValue)
	if keyValue == "" {
		return Principal{}, ErrAPIKeyInvalid
	}
	key, err := v.store.FindByValue(ctx, keyValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrAPIKeyInvalid
		}
		return Principal{}, err
	}
	if !key.Active {
		return Principal{}, ErrAPIKeyRevoked
	}
	if key.Expired(v.now()) {
		return Principal{}, ErrAPIKeyExpired
	}
	return APIKeyPrincipal(key.CompanyID, key.ID), nil
}
