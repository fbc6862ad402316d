package handler

import (
	"net/http"

	"assetlib/internal/domain/models"
	"assetlib/internal/httputil"
)

// principal extracts the authenticated caller, writing a 401 when absent
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := httputil.GetPrincipal(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}

// optionalQuery returns a pointer to the query value, or nil when empty
func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}
