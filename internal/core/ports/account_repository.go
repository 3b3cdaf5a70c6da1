package ports

import (
	"context"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// ListAccountsFilter narrows an account listing. Zero values mean no filter.
type ListAccountsFilter struct {
	Role   domain.InternalRole
	Status domain.AccountStatus
	Page   int // 1-based
	Limit  int // capped at 100 by the service
}

// AccountRepository is the credential store.
//
// Implementations return domain.ErrAccountNotFound for missing rows and wrap
// every driver failure with domain.ErrStoreUnavailable.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
	UpdateRole(ctx context.Context, id string, role domain.InternalRole) error
	List(ctx context.Context, filter ListAccountsFilter) ([]*domain.Account, int64, error)
}
