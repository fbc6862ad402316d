package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService services.FolderService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService services.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// CreateFolder creates a new folder
// POST /api/folders
// Returns 201 if created, 409 with the existing folder's ID if the name is taken
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	folder, err := h.folderService.Create(r.Context(), p, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetTree returns the folder forest visible to the caller
// GET /api/folders/tree?root_id=
func (h *FolderHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	roots, err := h.folderService.GetTree(r.Context(), p, optionalQuery(r, "root_id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": roots})
}

// GetBreadcrumb returns the root-first ancestor chain of a folder
// GET /api/folders/{id}/breadcrumb
func (h *FolderHandler) GetBreadcrumb(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	crumbs, err := h.folderService.GetBreadcrumb(r.Context(), p, r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"breadcrumb": crumbs})
}

// GetContents lists one page of a folder: child folders first, then files
// GET /api/folders/{id}/contents?limit=&offset=
func (h *FolderHandler) GetContents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	page, err := h.folderService.GetContents(r.Context(), p, r.PathValue("id"), models.Pagination{Limit: limit, Offset: offset})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// updateFolderRequest renames and/or moves a folder. parent_id follows
// JSON merge-patch semantics: absent keeps the parent, null moves to root.
type updateFolderRequest struct {
	Name     *string                 `json:"name"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// UpdateFolder renames and/or moves a folder
// PATCH /api/folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req updateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if req.Name == nil && !req.ParentID.Present {
		handleError(w, h.logger, fmt.Errorf("%w: nothing to update", domain.ErrValidation))
		return
	}

	id := r.PathValue("id")
	var (
		folder *models.Folder
		err    error
	)
	if req.Name != nil {
		if folder, err = h.folderService.Rename(r.Context(), p, id, *req.Name); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}
	if req.ParentID.Present {
		if folder, err = h.folderService.Move(r.Context(), p, id, req.ParentID.Value); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder soft-deletes a folder
// DELETE /api/folders/{id}?recursive=true
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	recursive, err := httputil.QueryBool(r, "recursive")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	result, err := h.folderService.Delete(r.Context(), p, r.PathValue("id"), recursive)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

// SetLock locks or unlocks a folder
// POST /api/folders/{id}/lock
func (h *FolderHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req lockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	folder, err := h.folderService.SetLocked(r.Context(), p, r.PathValue("id"), req.Locked)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

type dateFolderRequest struct {
	ParentID *string    `json:"parent_id"`
	Date     *time.Time `json:"date"` // defaults to now
}

// EnsureDateFolder finds or creates the YYYY/MM folders under a parent
// POST /api/folders/auto
func (h *FolderHandler) EnsureDateFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	folder, err := h.folderService.EnsureDateFolder(r.Context(), p, req.ParentID, date)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}
