package handler

import (
	"log/slog"
	"net/http"

	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// FileHandler handles batch file operations
type FileHandler struct {
	fileService services.FileBatchService
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService services.FileBatchService, logger *slog.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, logger: logger}
}

type batchRequest struct {
	FileIDs        []string `json:"file_ids"`
	TargetFolderID string   `json:"target_folder_id"`
}

// MoveFiles moves files into a folder; per-item outcomes are in the body
// POST /api/files/move
func (h *FileHandler) MoveFiles(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	results, err := h.fileService.MoveFiles(r.Context(), p, req.FileIDs, req.TargetFolderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// CopyFiles copies files into a folder
// POST /api/files/copy
func (h *FileHandler) CopyFiles(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	results, err := h.fileService.CopyFiles(r.Context(), p, req.FileIDs, req.TargetFolderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"results": results})
}
