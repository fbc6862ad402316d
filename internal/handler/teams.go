package handler

import (
	"log/slog"
	"net/http"

	"assetlib/internal/domain/models"
	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// TeamHandler handles team management requests
type TeamHandler struct {
	teamService services.TeamService
	logger      *slog.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService services.TeamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, logger: logger}
}

type createTeamRequest struct {
	Name string `json:"name"`
}

// CreateTeam creates a team owned by the caller
// POST /api/teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req createTeamRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), p, req.Name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, team)
}

type activeRequest struct {
	IsActive bool `json:"is_active"`
}

// SetTeamActive activates or deactivates a team
// PATCH /api/teams/{id}
func (h *TeamHandler) SetTeamActive(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req activeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.teamService.SetTeamActive(r.Context(), p, r.PathValue("id"), req.IsActive); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers lists a team's members
// GET /api/teams/{id}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	members, err := h.teamService.ListMembers(r.Context(), p, r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"members": members})
}

type setMemberRequest struct {
	Role models.TeamRole `json:"role"`
}

// SetMember adds a member or changes their role
// PUT /api/teams/{id}/members/{userID}
func (h *TeamHandler) SetMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req setMemberRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	m, err := h.teamService.SetMember(r.Context(), p, r.PathValue("id"), r.PathValue("userID"), req.Role)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}

// SetMemberActive activates or deactivates a membership
// PATCH /api/teams/{id}/members/{userID}
func (h *TeamHandler) SetMemberActive(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req activeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	m, err := h.teamService.SetMemberActive(r.Context(), p, r.PathValue("id"), r.PathValue("userID"), req.IsActive)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, m)
}
