package handler

import (
	"log/slog"
	"net/http"

	"assetlib/internal/service/library"
)

// NewRouter registers every API route on a new ServeMux (Go 1.22+ patterns)
func NewRouter(svc *library.Services, logger *slog.Logger) *http.ServeMux {
	folders := NewFolderHandler(svc.Folders, logger)
	files := NewFileHandler(svc.Files, logger)
	grants := NewGrantHandler(svc.Sharing, logger)
	teams := NewTeamHandler(svc.Teams, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", HealthCheck)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folders.CreateFolder)
	mux.HandleFunc("POST /api/folders/auto", folders.EnsureDateFolder)
	mux.HandleFunc("GET /api/folders/tree", folders.GetTree)
	mux.HandleFunc("GET /api/folders/{id}/breadcrumb", folders.GetBreadcrumb)
	mux.HandleFunc("GET /api/folders/{id}/contents", folders.GetContents)
	mux.HandleFunc("PATCH /api/folders/{id}", folders.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folders.DeleteFolder)
	mux.HandleFunc("POST /api/folders/{id}/lock", folders.SetLock)

	// Batch file routes
	mux.HandleFunc("POST /api/files/move", files.MoveFiles)
	mux.HandleFunc("POST /api/files/copy", files.CopyFiles)

	// Sharing routes
	mux.HandleFunc("GET /api/grants", grants.ListGrants)
	mux.HandleFunc("POST /api/grants", grants.Share)
	mux.HandleFunc("DELETE /api/grants", grants.Revoke)

	// Team routes
	mux.HandleFunc("POST /api/teams", teams.CreateTeam)
	mux.HandleFunc("PATCH /api/teams/{id}", teams.SetTeamActive)
	mux.HandleFunc("GET /api/teams/{id}/members", teams.ListMembers)
	mux.HandleFunc("PUT /api/teams/{id}/members/{userID}", teams.SetMember)
	mux.HandleFunc("PATCH /api/teams/{id}/members/{userID}", teams.SetMemberActive)

	return mux
}
