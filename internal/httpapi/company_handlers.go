package httpapi

import (
	"net/http"

	"warden.dev/internal/auth"
)

// Company-scoped reads behind API-key authentication. The key's validity is
// the whole authorization story here; no permission codes apply.

func (a *API) handleCompanyProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	company, err := a.dir.GetCompany(r.Context(), principal.CompanyID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (a *API) handleCompanyKeys(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	keys, err := a.dir.ListAPIKeys(r.Context(), principal.CompanyID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}
