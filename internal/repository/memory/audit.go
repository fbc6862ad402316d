package memory

import (
	"context"
	"maps"

	"assetlib/internal/domain/models"

	"github.com/google/uuid"
)

type auditRepository struct {
	store *Store
}

func (r *auditRepository) Record(ctx context.Context, event *models.AuditEvent) error {
	r.store.write(func(st *state) {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = r.store.now()
		}
		e := *event
		e.Detail = maps.Clone(event.Detail)
		st.audit = append(st.audit, e)
	})
	return nil
}

func (r *auditRepository) ListForResource(ctx context.Context, resourceType, resourceID string) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	r.store.read(func(st *state) {
		for _, e := range st.audit {
			if e.ResourceType == resourceType && e.ResourceID == resourceID {
				out = append(out, e)
			}
		}
	})
	return out, nil
}
