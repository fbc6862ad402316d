package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"assetlib/internal/domain"
	"assetlib/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Unexpected errors
// are logged and reported without detail.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := domain.StatusCodeFor(err)

	var conflictErr *domain.ConflictError
	switch {
	case errors.As(err, &conflictErr) && conflictErr.ResourceID != "":
		httputil.RespondErrorWithExtras(w, status, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, status, "internal server error")
	default:
		httputil.RespondError(w, status, err.Error())
	}
}
