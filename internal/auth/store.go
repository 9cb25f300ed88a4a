package auth

import (
	"context"
	"time"
)

// CredentialStore resolves users for credential validation. Lookups are by
// lower-cased email.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// RoleRepository resolves a role to its permission-code set. The guard is the
// only consumer; validators never touch it.
type RoleRepository interface {
	FindRole(ctx context.Context, roleID string) (*Role, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]string, error)
}

// ApiKeyStore resolves a presented key value to the owning company and key
// metadata.
type ApiKeyStore interface {
	FindByValue(ctx context.Context, value string) (*APIKey, error)
}

// DirectoryStore is the full persistence surface behind the management
// operations: users, roles, permissions, companies and API keys.
type DirectoryStore interface {
	CredentialStore
	RoleRepository
	ApiKeyStore

	CreateUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, userID string) error

	CreateRole(ctx context.Context, role *Role) error
	ListRoles(ctx context.Context) ([]Role, error)
	EnsurePermissions(ctx context.Context, perms []Permission) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, codes []string) error

	CreateCompany(ctx context.Context, c *Company) error
	FindCompany(ctx context.Context, id string) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)

	CreateAPIKey(ctx context.Context, key *APIKey) error
	FindAPIKey(ctx context.Context, id string) (*APIKey, error)
	ListAPIKeysByCompany(ctx context.Context, companyID string) ([]APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// Clock abstracts time for expiry checks in tests.
type Clock func() time.Time
