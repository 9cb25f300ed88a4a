package auth

import (
	"context"
	"errors"
	"strings"
)

// CredentialValidator authenticates email/password pairs against the
// credential store. It holds no per-request state, so concurrent calls never
// interfere.
type CredentialValidator struct {
	store CredentialStore
	roles RoleRepository
}

// NewCredentialValidator constructs a validator over the given stores. The
// role repository is only consulted to resolve the role name carried on the
// principal; permission resolution stays with the guard.
func NewCredentialValidator(store CredentialStore, roles RoleRepository) (*CredentialValidator, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	return &CredentialValidator{store: store, roles: roles}, nil
}

// Authenticate resolves the user by normalized email and verifies the
// password. Unknown email and wrong password fail with the same error so the
// outcome does not leak account existence.
func (v *CredentialValidator) Authenticate(ctx context.Context, email, password string) (Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Principal{}, ErrInvalidCredentials
	}
	user, err := v.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	if user.Status != UserStatusActive {
		return Principal{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Principal{}, ErrInvalidCredentials
	}

	roleName := ""
	if v.roles != nil && user.RoleID != "" {
		if role, err := v.roles.FindRole(ctx, user.RoleID); err == nil {
			roleName = role.Name
		}
	}
	return UserPrincipal(user.ID, user.Email, user.RoleID, roleName), nil
}
