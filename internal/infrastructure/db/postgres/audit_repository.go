package postgres

import (
	"context"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

type AuditRepository struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepository {
	return &AuditRepository{q: q}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, e domain.AuthEvent) error {
	const query = `
		INSERT INTO auth_events (kind, account_id, email, actor_id, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.q.Exec(ctx, query, string(e.Kind), e.AccountID, e.Email, e.ActorID, e.Detail, e.At); err != nil {
		return unavailable("insert auth event", err)
	}
	return nil
}
