package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// GrantHandler handles sharing requests
type GrantHandler struct {
	sharingService services.SharingService
	logger         *slog.Logger
}

// NewGrantHandler creates a new grant handler
func NewGrantHandler(sharingService services.SharingService, logger *slog.Logger) *GrantHandler {
	return &GrantHandler{sharingService: sharingService, logger: logger}
}

// ListGrants lists the grants on a resource
// GET /api/grants?resource_type=folder&resource_id=
func (h *GrantHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	res, err := models.ParseResourceRef(q.Get("resource_type"), q.Get("resource_id"))
	if err != nil {
		handleError(w, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	grants, err := h.sharingService.ListGrants(r.Context(), p, res)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"grants": grants})
}

// Share grants permissions on a resource
// POST /api/grants
func (h *GrantHandler) Share(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req services.ShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	grants, err := h.sharingService.Share(r.Context(), p, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{"grants": grants})
}

// Revoke removes one grant
// DELETE /api/grants
func (h *GrantHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req services.RevokeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.sharingService.Revoke(r.Context(), p, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
