package memory

import (
	"context"
	"fmt"
	"sort"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/google/uuid"
)

type teamRepository struct {
	store *Store
}

func memberKey(teamID, userID string) string {
	return teamID + "|" + userID
}

func (r *teamRepository) CreateTeam(ctx context.Context, team *models.Team) error {
	r.store.write(func(st *state) {
		if team.ID == "" {
			team.ID = uuid.NewString()
		}
		if team.CreatedAt.IsZero() {
			team.CreatedAt = r.store.now()
		}
		team.UpdatedAt = team.CreatedAt
		t := *team
		st.teams[t.ID] = &t
	})
	return nil
}

func (r *teamRepository) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var out *models.Team
	r.store.read(func(st *state) {
		if t, ok := st.teams[id]; ok {
			tc := *t
			out = &tc
		}
	})
	if out == nil {
		return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func (r *teamRepository) SetTeamActive(ctx context.Context, id string, active bool) error {
	var err error
	r.store.write(func(st *state) {
		t, ok := st.teams[id]
		if !ok {
			err = fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
			return
		}
		t.IsActive = active
		t.UpdatedAt = r.store.now()
	})
	return err
}

func (r *teamRepository) UpsertMember(ctx context.Context, m *models.Membership) error {
	var err error
	r.store.write(func(st *state) {
		if _, ok := st.teams[m.TeamID]; !ok {
			err = fmt.Errorf("team %s: %w", m.TeamID, domain.ErrNotFound)
			return
		}
		now := r.store.now()
		key := memberKey(m.TeamID, m.UserID)
		if existing, ok := st.members[key]; ok {
			m.CreatedAt = existing.CreatedAt
		} else if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		mc := *m
		st.members[key] = &mc
	})
	return err
}

func (r *teamRepository) GetMember(ctx context.Context, teamID, userID string) (*models.Membership, error) {
	var out *models.Membership
	r.store.read(func(st *state) {
		if m, ok := st.members[memberKey(teamID, userID)]; ok {
			mc := *m
			out = &mc
		}
	})
	if out == nil {
		return nil, fmt.Errorf("member %s of team %s: %w", userID, teamID, domain.ErrNotFound)
	}
	return out, nil
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID string) ([]models.Membership, error) {
	var out []models.Membership
	r.store.read(func(st *state) {
		for _, m := range st.members {
			if m.TeamID == teamID {
				out = append(out, *m)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *teamRepository) ActiveTeamIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var out []string
	r.store.read(func(st *state) {
		for _, m := range st.members {
			if m.UserID != userID || !m.IsActive {
				continue
			}
			if t, ok := st.teams[m.TeamID]; ok && t.IsActive {
				out = append(out, t.ID)
			}
		}
	})
	sort.Strings(out)
	return out, nil
}
