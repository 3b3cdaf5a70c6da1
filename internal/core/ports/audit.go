package ports

import (
	"context"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// AuditRecorder accepts auth events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// AuditRepository persists auth events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event domain.AuthEvent) error
}
