package auth

// PrincipalKind discriminates the two trust models a caller can arrive with.
type PrincipalKind string

const (
	KindUser   PrincipalKind = "user"
	KindAPIKey PrincipalKind = "api_key"
)

// Principal is the resolved identity and trust scope of an authenticated
// caller. It is a tagged union: user principals carry a user id and role,
// API-key principals carry a company id and key id. The zero Principal is
// unauthenticated.
type Principal struct {
	Kind PrincipalKind

	// User principal fields.
	UserID   string
	Email    string
	RoleID   string
	RoleName string

	// API-key principal fields.
	CompanyID string
	KeyID     string
}

// UserPrincipal builds the principal for a credential- or token-authenticated
// user. Permission resolution is deferred to the guard.
func UserPrincipal(userID, email, roleID, roleName string) Principal {
	return Principal{
		Kind:     KindUser,
		UserID:   userID,
		Email:    email,
		RoleID:   roleID,
		RoleName: roleName,
	}
}

// APIKeyPrincipal builds the principal for a key-authenticated caller scoped
// to its owning company.
func APIKeyPrincipal(companyID, keyID string) Principal {
	return Principal{
		Kind:      KindAPIKey,
		CompanyID: companyID,
		KeyID:     keyID,
	}
}

// Authenticated reports whether some validator succeeded for this principal.
func (p Principal) Authenticated() bool {
	return p.Kind == KindUser || p.Kind == KindAPIKey
}
