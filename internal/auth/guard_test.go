package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newGuardFixture(t *testing.T, opts ...GuardOption) (*PermissionGuard, *fakeRoleRepo) {
	t.Helper()
	repo := &fakeRoleRepo{
		roles: map[string]*Role{
			"role-marketing": {ID: "role-marketing", Name: "MARKETING_STAFF"},
		},
		perms: map[string][]string{
			"role-marketing": {PermViewCustomerList, PermViewOrderList},
		},
	}
	guard, err := NewPermissionGuard(repo, opts...)
	if err != nil {
		t.Fatalf("NewPermissionGuard: %v", err)
	}
	return guard, repo
}

func TestAuthorizeUserPrincipal(t *testing.T) {
	guard, _ := newGuardFixture(t)
	ctx := context.Background()
	staff := UserPrincipal("user-1", "", "role-marketing", "MARKETING_STAFF")

	if err := guard.Authorize(ctx, staff, PermViewCustomerList); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if err := guard.Authorize(ctx, staff, PermViewCustomerList, PermViewOrderList); err != nil {
		t.Fatalf("expected allow for full subset, got %v", err)
	}

	err := guard.Authorize(ctx, staff, PermEditOrderStatus)
	var mp *MissingPermissionError
	if !errors.As(err, &mp) {
		t.Fatalf("expected MissingPermissionError, got %v", err)
	}
	if mp.Code != PermEditOrderStatus {
		t.Fatalf("unexpected missing code: %s", mp.Code)
	}

	// AND semantics: one missing code denies the whole requirement.
	if err := guard.Authorize(ctx, staff, PermViewCustomerList, PermEditOrderStatus); err == nil {
		t.Fatal("expected deny when any required code is missing")
	}
}

func TestAuthorizeMonotonicity(t *testing.T) {
	guard, repo := newGuardFixture(t)
	ctx := context.Background()
	staff := UserPrincipal("user-1", "", "role-marketing", "")

	if err := guard.Authorize(ctx, staff, PermViewOrderList); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}

	// Removing a required permission from the role flips Allow to Deny once
	// the cache entry is invalidated.
	repo.perms["role-marketing"] = []string{PermViewCustomerList}
	guard.Invalidate("role-marketing")

	err := guard.Authorize(ctx, staff, PermViewOrderList)
	var mp *MissingPermissionError
	if !errors.As(err, &mp) || mp.Code != PermViewOrderList {
		t.Fatalf("expected MissingPermission(%s), got %v", PermViewOrderList, err)
	}
}

func TestAuthorizeAPIKeyPrincipal(t *testing.T) {
	guard, _ := newGuardFixture(t)
	ctx := context.Background()
	keyed := APIKeyPrincipal("company-7", "key-1")

	// Key validity is the whole story for permissionless routes.
	if err := guard.Authorize(ctx, keyed); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}

	// Routes demanding user-level codes always deny an API key.
	err := guard.Authorize(ctx, keyed, PermViewCustomerList)
	var mp *MissingPermissionError
	if !errors.As(err, &mp) {
		t.Fatalf("expected MissingPermissionError, got %v", err)
	}
}

func TestAuthorizeUnauthenticated(t *testing.T) {
	guard, _ := newGuardFixture(t)
	if err := guard.Authorize(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGuardCachesWithinTTL(t *testing.T) {
	guard, repo := newGuardFixture(t, WithCacheTTL(time.Hour))
	ctx := context.Background()
	staff := UserPrincipal("user-1", "", "role-marketing", "")

	for i := 0; i < 4; i++ {
		if err := guard.Authorize(ctx, staff, PermViewCustomerList); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("expected one repository read, got %d", repo.calls)
	}

	guard.Invalidate("role-marketing")
	if err := guard.Authorize(ctx, staff, PermViewCustomerList); err != nil {
		t.Fatalf("post-invalidate: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected fresh read after invalidation, got %d", repo.calls)
	}
}
