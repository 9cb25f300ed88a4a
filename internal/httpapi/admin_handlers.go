package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.dir.RegisterUser(r.Context(), req.Email, req.Name, req.Password, req.RoleID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%s", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.dir.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.dir.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/roles/%s", role.ID))
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.dir.ListRoles(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

type setRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (a *API) handleSetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")
	var req setRolePermissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.dir.SetRolePermissions(r.Context(), roleID, req.Permissions); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role_id":     roleID,
		"permissions": req.Permissions,
	})
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.dir.ListPermissions(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

func (a *API) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	company, err := a.dir.CreateCompany(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/companies/%s", company.ID))
	writeJSON(w, http.StatusCreated, company)
}

func (a *API) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := a.dir.ListCompanies(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

type issueKeyRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

type issueKeyResponse struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"company_id"`
	Value     string     `json:"value"` // shown once, never listed again
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (a *API) handleIssueAPIKey(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	var req issueKeyRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	key, err := a.dir.IssueAPIKey(r.Context(), companyID, req.ExpiresAt)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issueKeyResponse{
		ID:        key.ID,
		CompanyID: key.CompanyID,
		Value:     key.Value,
		ExpiresAt: key.ExpiresAt,
	})
}

func (a *API) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	keys, err := a.dir.ListAPIKeys(r.Context(), companyID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (a *API) handleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")
	if err := a.dir.RevokeAPIKey(r.Context(), keyID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked", "key_id": keyID})
}
