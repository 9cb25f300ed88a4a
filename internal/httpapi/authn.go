package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"warden.dev/internal/audit"
	"warden.dev/internal/auth"
	"warden.dev/internal/obs"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	apiKeyHeader = "X-API-Key"
)

// routePermissions is the declarative association between a route and the
// permission codes it demands. The table is plain data consulted at dispatch
// time; routes absent from it require authentication only. Multiple codes
// are conjunctive: the principal must hold all of them.
var routePermissions = map[string][]string{
	"POST /v1/users":                 {auth.PermManageUsers},
	"GET /v1/users":                  {auth.PermManageUsers},
	"POST /v1/roles":                 {auth.PermManageRoles},
	"GET /v1/roles":                  {auth.PermManageRoles},
	"PUT /v1/roles/{id}/permissions": {auth.PermManageRoles},
	"GET /v1/permissions":            {auth.PermManageRoles},
	"POST /v1/companies":             {auth.PermManageCompanies},
	"GET /v1/companies":              {auth.PermManageCompanies},
	"POST /v1/companies/{id}/keys":   {auth.PermManageAPIKeys},
	"GET /v1/companies/{id}/keys":    {auth.PermManageAPIKeys},
	"DELETE /v1/keys/{id}":           {auth.PermManageAPIKeys},
	"GET /v1/logs":                   {auth.PermViewAPILogs},
}

// withBearerAuth authenticates the request by bearer token and attaches the
// resulting user principal to the context.
func (a *API) withBearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.AuthDecision("token", "missing")
			writeAuthError(w, auth.ErrUnauthenticated)
			return
		}
		principal, err := a.tokens.Verify(token)
		if err != nil {
			obs.AuthDecision("token", "deny")
			writeAuthError(w, err)
			return
		}
		obs.AuthDecision("token", "allow")
		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermissions wraps a handler with the authorization decision for the
// given route table key.
func (a *API) requirePermissions(route string, next http.HandlerFunc) http.HandlerFunc {
	required := routePermissions[route]
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeAuthError(w, auth.ErrUnauthenticated)
			return
		}
		if err := a.guard.Authorize(r.Context(), principal, required...); err != nil {
			writeAuthError(w, err)
			return
		}
		if len(required) > 0 {
			obs.AuthDecision("permission", "allow")
		}
		next(w, r)
	}
}

// withAPIKeyAuth authenticates by the X-API-Key header and records exactly
// one audit entry per request, whatever the outcome. The validator itself is
// side-effect free; recording happens here, after the response status is
// known.
func (a *API) withAPIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.keys.Authenticate(r.Context(), r.Header.Get(apiKeyHeader))

		sw := &statusWriter{ResponseWriter: w, code: 200}
		if err != nil {
			obs.AuthDecision("api_key", "deny")
			writeAuthError(sw, err)
		} else {
			obs.AuthDecision("api_key", "allow")
			if gerr := a.guard.Authorize(r.Context(), principal); gerr != nil {
				writeAuthError(sw, gerr)
			} else {
				ctx := auth.ContextWithPrincipal(r.Context(), principal)
				next.ServeHTTP(sw, r.WithContext(ctx))
			}
		}

		a.audit.Record(r.Context(), audit.Entry{
			CompanyID:  principal.CompanyID,
			Endpoint:   r.URL.Path,
			Method:     r.Method,
			StatusCode: sw.code,
			IPAddress:  clientIP(r),
		})
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
