package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"warden.dev/internal/audit"
)

// handleQueryLogs exposes the audit log query surface. All supplied query
// parameters combine conjunctively; entries come back newest-first.
func (a *API) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLogFilter(r)
	if err != "" {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	filter = filter.Normalize()
	entries, qerr := a.audit.Query(r.Context(), filter)
	if qerr != nil {
		writeStoreError(w, qerr)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":   entries,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func parseLogFilter(r *http.Request) (audit.Filter, string) {
	q := r.URL.Query()
	filter := audit.Filter{
		CompanyID: q.Get("company_id"),
		Endpoint:  q.Get("endpoint"),
		Method:    q.Get("method"),
		IPAddress: q.Get("ip_address"),
	}

	switch status := q.Get("status"); status {
	case "", "all":
		filter.Status = audit.StatusAll
	case "success":
		filter.Status = audit.StatusSuccess
	case "error":
		filter.Status = audit.StatusError
	default:
		return audit.Filter{}, "status must be one of all, success, error"
	}

	if raw := q.Get("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filter{}, "start_date must be RFC3339"
		}
		filter.StartDate = &t
	}
	if raw := q.Get("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filter{}, "end_date must be RFC3339"
		}
		filter.EndDate = &t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return audit.Filter{}, "limit must be a positive integer"
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return audit.Filter{}, "offset must be a non-negative integer"
		}
		filter.Offset = n
	}
	return filter, ""
}
