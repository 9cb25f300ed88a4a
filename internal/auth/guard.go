package auth

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheTTL     = 30 * time.Second
	defaultCacheEntries = 256
)

// PermissionGuard renders allow/deny decisions for authenticated principals.
//
// User principals are authorized against their role's permission-code set,
// resolved through the RoleRepository behind a TTL-bounded cache; a decision
// is Allow only when the set holds every required code. API-key principals
// are pre-scoped by key validity: routes that require no user permission
// codes are allowed outright, and routes that do require codes always deny
// an API-key principal, because keys never carry user-level permissions.
//
// The cache bounds the stale-allow window after a role-permission change to
// its TTL; writes should call Invalidate to shorten it to zero.
type PermissionGuard struct {
	roles RoleRepository
	cache *lru.LRU[string, map[string]struct{}]
}

// GuardOption configures the guard.
type GuardOption func(*guardConfig)

type guardConfig struct {
	ttl     time.Duration
	entries int
}

// WithCacheTTL bounds how long a resolved permission set may be served
// without consulting the repository again.
func WithCacheTTL(ttl time.Duration) GuardOption {
	return func(c *guardConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheSize caps the number of cached roles.
func WithCacheSize(entries int) GuardOption {
	return func(c *guardConfig) {
		if entries > 0 {
			c.entries = entries
		}
	}
}

// NewPermissionGuard constructs a guard over the role repository.
func NewPermissionGuard(roles RoleRepository, opts ...GuardOption) (*PermissionGuard, error) {
	if roles == nil {
		return nil, errors.New("role repository is required")
	}
	cfg := guardConfig{ttl: defaultCacheTTL, entries: defaultCacheEntries}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PermissionGuard{
		roles: roles,
		cache: lru.NewLRU[string, map[string]struct{}](cfg.entries, nil, cfg.ttl),
	}, nil
}

// Authorize decides whether the principal may perform an action gated by the
// given permission codes. Multiple codes are conjunctive: the principal must
// hold all of them. It returns nil on allow, *MissingPermissionError when a
// required code is absent, and ErrUnauthenticated for a zero principal.
func (g *PermissionGuard) Authorize(ctx context.Context, principal Principal, required ...string) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}

	switch principal.Kind {
	case KindAPIKey:
		// Key validity was already established by the validator; permission
		// codes are a user-level concept an API key can never satisfy.
		if len(required) == 0 {
			return nil
		}
		return &MissingPermissionError{Code: required[0]}
	case KindUser:
		if len(required) == 0 {
			return nil
		}
		set, err := g.permissionSet(ctx, principal.RoleID)
		if err != nil {
			return err
		}
		for _, code := range required {
			if _, ok := set[code]; !ok {
				return &MissingPermissionError{Code: code}
			}
		}
		return nil
	default:
		return ErrUnauthenticated
	}
}

// Invalidate drops the cached permission set for a role. Call it after any
// role-permission write so the next decision sees fresh truth.
func (g *PermissionGuard) Invalidate(roleID string) {
	g.cache.Remove(roleID)
}

func (g *PermissionGuard) permissionSet(ctx context.Context, roleID string) (map[string]struct{}, error) {
	if roleID == "" {
		return map[string]struct{}{}, nil
	}
	if set, ok := g.cache.Get(roleID); ok {
		return set, nil
	}
	codes, err := g.roles.PermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	g.cache.Add(roleID, set)
	return set, nil
}
