package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"warden.dev/internal/ids"
)

// Directory is the management surface over users, roles, permissions,
// companies and API keys. It validates input, hashes secrets and delegates
// persistence to the store; the guard cache is invalidated on every
// role-permission write so stale allows stay bounded.
type Directory struct {
	store DirectoryStore
	guard *PermissionGuard
	now   Clock
}

// NewDirectory constructs the management service. The guard may be nil in
// tooling that only seeds data.
func NewDirectory(store DirectoryStore, guard *PermissionGuard) (*Directory, error) {
	if store == nil {
		return nil, errors.New("directory store is required")
	}
	return &Directory{store: store, guard: guard, now: time.Now}, nil
}

// EnsureBuiltins makes sure the builtin permission catalog exists.
func (d *Directory) EnsureBuiltins(ctx context.Context) error {
	return d.store.EnsurePermissions(ctx, BuiltinPermissions)
}

// RegisterUser creates a user with a hashed password and the given role.
func (d *Directory) RegisterUser(ctx context.Context, email, name, password, roleID string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return User{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	if _, err := d.store.FindRole(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, fmt.Errorf("%w: unknown role %s", ErrInvalidInput, roleID)
		}
		return User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		RoleID:       roleID,
		Status:       UserStatusActive,
	}
	if err := d.store.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	return *user, nil
}

// ListUsers returns all users.
func (d *Directory) ListUsers(ctx context.Context) ([]User, error) {
	return d.store.ListUsers(ctx)
}

// GetUser loads a single user by id.
func (d *Directory) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	u, err := d.store.FindUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (d *Directory) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := d.store.FindUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	next = strings.TrimSpace(next)
	if next == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return d.store.UpdateUserPassword(ctx, userID, hash)
}

// VerifyEmail flips the user's email-verified flag.
func (d *Directory) VerifyEmail(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return d.store.MarkEmailVerified(ctx, userID)
}

// CreateRole creates a named role.
func (d *Directory) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role := &Role{ID: ids.New(), Name: name, Description: strings.TrimSpace(description)}
	if err := d.store.CreateRole(ctx, role); err != nil {
		return Role{}, err
	}
	return *role, nil
}

// ListRoles returns all roles.
func (d *Directory) ListRoles(ctx context.Context) ([]Role, error) {
	return d.store.ListRoles(ctx)
}

// ListPermissions returns the permission catalog.
func (d *Directory) ListPermissions(ctx context.Context) ([]Permission, error) {
	return d.store.ListPermissions(ctx)
}

// SetRolePermissions replaces a role's permission set and invalidates the
// guard cache for that role.
func (d *Directory) SetRolePermissions(ctx context.Context, roleID string, codes []string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	if err := d.store.SetRolePermissions(ctx, roleID, dedupeCodes(codes)); err != nil {
		return err
	}
	if d.guard != nil {
		d.guard.Invalidate(roleID)
	}
	return nil
}

// CreateCompany creates a tenant with fresh OAuth-style client credentials.
func (d *Directory) CreateCompany(ctx context.Context, name string) (Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Company{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	company := &Company{
		ID:           ids.New(),
		Name:         name,
		ClientID:     uuid.NewString(),
		ClientSecret: uuid.NewString(),
	}
	if err := d.store.CreateCompany(ctx, company); err != nil {
		return Company{}, err
	}
	return *company, nil
}

// ListCompanies returns all tenants.
func (d *Directory) ListCompanies(ctx context.Context) ([]Company, error) {
	return d.store.ListCompanies(ctx)
}

// GetCompany loads a single tenant.
func (d *Directory) GetCompany(ctx context.Context, id string) (Company, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Company{}, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	c, err := d.store.FindCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	return *c, nil
}

// IssueAPIKey mints an opaque key for a company. The returned key carries the
// secret value; it is shown once and never listed again.
func (d *Directory) IssueAPIKey(ctx context.Context, companyID string, expiresAt *time.Time) (APIKey, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return APIKey{}, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	if _, err := d.store.FindCompany(ctx, companyID); err != nil {
		return APIKey{}, err
	}
	if expiresAt != nil && expiresAt.Before(d.now()) {
		return APIKey{}, fmt.Errorf("%w: expiry must be in the future", ErrInvalidInput)
	}
	key := &APIKey{
		ID:        ids.New(),
		CompanyID: companyID,
		Value:     "wk_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""),
		Active:    true,
		ExpiresAt: expiresAt,
	}
	if err := d.store.CreateAPIKey(ctx, key); err != nil {
		return APIKey{}, err
	}
	return *key, nil
}

// ListAPIKeys returns a company's keys, secrets omitted.
func (d *Directory) ListAPIKeys(ctx context.Context, companyID string) ([]APIKey, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	return d.store.ListAPIKeysByCompany(ctx, companyID)
}

// RevokeAPIKey deactivates a key. The row stays so audit entries keep their
// linkage.
func (d *Directory) RevokeAPIKey(ctx context.Context, keyID string) error {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return fmt.Errorf("%w: key_id is required", ErrInvalidInput)
	}
	return d.store.RevokeAPIKey(ctx, keyID)
}

func dedupeCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
