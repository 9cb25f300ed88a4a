package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"warden.dev/internal/auth"
	"warden.dev/internal/obs"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeAuthError maps engine failures onto the wire contract: every
// authentication failure collapses to a uniform 401 so the response never
// reveals whether an account or key exists; a missing permission is a
// distinct 403 because the caller is known, just not allowed. The internal
// kind is preserved in logs and metrics only.
func writeAuthError(w http.ResponseWriter, err error) {
	var mp *auth.MissingPermissionError
	switch {
	case errors.As(err, &mp):
		obs.AuthDecision("permission", "deny")
		obs.Logger().Debugw("authorization denied", "missing_permission", mp.Code)
		writeError(w, http.StatusForbidden, "forbidden")
	case auth.IsAuthenticationFailure(err):
		obs.Logger().Debugw("authentication failed", "reason", err.Error())
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	default:
		obs.Logger().Errorw("authentication error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeStoreError maps directory/store errors.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	default:
		obs.Logger().Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
