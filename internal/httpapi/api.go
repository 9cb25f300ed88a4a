// Package httpapi is the request-handling layer around the auth engine: it
// extracts credentials, asks the engine for a decision and maps outcomes to
// HTTP status codes.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"warden.dev/internal/audit"
	"warden.dev/internal/auth"
	"warden.dev/internal/obs"
)

// ReadyProbe checks readiness (DB ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options configures the API.
type Options struct {
	Tokens      *auth.TokenService
	Keys        *auth.ApiKeyValidator
	Credentials *auth.CredentialValidator
	Guard       *auth.PermissionGuard
	Directory   *auth.Directory
	Audit       *audit.Logger
	ReadyProbe  ReadyProbe
	Version     string
	RateBurst   int
	RatePerSec  int
}

// API is the HTTP layer.
type API struct {
	tokens     *auth.TokenService
	keys       *auth.ApiKeyValidator
	creds      *auth.CredentialValidator
	guard      *auth.PermissionGuard
	dir        *auth.Directory
	audit      *audit.Logger
	readyProbe ReadyProbe
	version    string

	router chi.Router
}

// New wires the router. Route permission codes live in routePermissions; the
// handlers themselves never re-check authorization.
func New(opts Options) *API {
	a := &API{
		tokens:     opts.Tokens,
		keys:       opts.Keys,
		creds:      opts.Credentials,
		guard:      opts.Guard,
		dir:        opts.Directory,
		audit:      opts.Audit,
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
	}

	burst, perSec := opts.RateBurst, opts.RatePerSec
	if burst < 1 {
		burst = 20
	}
	if perSec < 1 {
		perSec = 10
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(Logging, SecurityHeaders)
	r.Use(func(next http.Handler) http.Handler { return RateLimit(next, burst, perSec) })
	r.Use(func(next http.Handler) http.Handler { return MaxBodyBytes(next, 1<<20) })

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Get("/v1/info", a.handleInfo)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Post("/v1/auth/login", a.handleLogin)

	// Bearer-gated user surface.
	r.Group(func(protected chi.Router) {
		protected.Use(a.withBearerAuth)
		protected.Get("/v1/me", a.requirePermissions("GET /v1/me", a.handleMe))
		protected.Post("/v1/auth/password", a.requirePermissions("POST /v1/auth/password", a.handleChangePassword))
		protected.Post("/v1/auth/verify-email", a.requirePermissions("POST /v1/auth/verify-email", a.handleVerifyEmail))

		protected.Post("/v1/users", a.requirePermissions("POST /v1/users", a.handleCreateUser))
		protected.Get("/v1/users", a.requirePermissions("GET /v1/users", a.handleListUsers))

		protected.Post("/v1/roles", a.requirePermissions("POST /v1/roles", a.handleCreateRole))
		protected.Get("/v1/roles", a.requirePermissions("GET /v1/roles", a.handleListRoles))
		protected.Put("/v1/roles/{id}/permissions", a.requirePermissions("PUT /v1/roles/{id}/permissions", a.handleSetRolePermissions))
		protected.Get("/v1/permissions", a.requirePermissions("GET /v1/permissions", a.handleListPermissions))

		protected.Post("/v1/companies", a.requirePermissions("POST /v1/companies", a.handleCreateCompany))
		protected.Get("/v1/companies", a.requirePermissions("GET /v1/companies", a.handleListCompanies))
		protected.Post("/v1/companies/{id}/keys", a.requirePermissions("POST /v1/companies/{id}/keys", a.handleIssueAPIKey))
		protected.Get("/v1/companies/{id}/keys", a.requirePermissions("GET /v1/companies/{id}/keys", a.handleListAPIKeys))
		protected.Delete("/v1/keys/{id}", a.requirePermissions("DELETE /v1/keys/{id}", a.handleRevokeAPIKey))

		protected.Get("/v1/logs", a.requirePermissions("GET /v1/logs", a.handleQueryLogs))
	})

	// API-key-gated company surface; every request lands in the audit log.
	r.Group(func(keyed chi.Router) {
		keyed.Use(a.withAPIKeyAuth)
		keyed.Get("/v1/company/profile", a.handleCompanyProfile)
		keyed.Get("/v1/company/keys", a.handleCompanyKeys)
	})

	a.router = r
	return a
}

// Handler returns the fully instrumented handler.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "warden-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "warden-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
