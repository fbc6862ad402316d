package memory

import (
	"context"
	"sort"

	"assetlib/internal/domain/models"

	"github.com/google/uuid"
)

type grantRepository struct {
	store *Store
}

func (r *grantRepository) Upsert(ctx context.Context, grant *models.Grant) error {
	key := models.GrantKey(grant.Resource, grant.Grantee, grant.Permission)
	r.store.write(func(st *state) {
		if existing, ok := st.grants[key]; ok {
			grant.ID = existing.ID
		} else if grant.ID == "" {
			grant.ID = uuid.NewString()
		}
		if grant.GrantedAt.IsZero() {
			grant.GrantedAt = r.store.now()
		}
		g := *grant
		g.GrantedBy = cloneString(grant.GrantedBy)
		g.ExpiresAt = cloneTime(grant.ExpiresAt)
		st.grants[key] = &g
	})
	return nil
}

func (r *grantRepository) Delete(ctx context.Context, resource models.ResourceRef, grantee models.Grantee, perm models.Permission) (bool, error) {
	key := models.GrantKey(resource, grantee, perm)
	var existed bool
	r.store.write(func(st *state) {
		_, existed = st.grants[key]
		delete(st.grants, key)
	})
	return existed, nil
}

func (r *grantRepository) ListForResource(ctx context.Context, resource models.ResourceRef) ([]models.Grant, error) {
	var out []models.Grant
	r.store.read(func(st *state) {
		for _, g := range st.grants {
			if g.Resource == resource {
				out = append(out, *g)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return models.GrantKey(out[i].Resource, out[i].Grantee, out[i].Permission) <
			models.GrantKey(out[j].Resource, out[j].Grantee, out[j].Permission)
	})
	return out, nil
}
