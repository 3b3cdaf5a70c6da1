package ports

import (
	"context"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// AuthService covers the login path and the per-request authentication path.
type AuthService interface {
	// Login verifies email/password and issues a session token.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	// Authenticate verifies a raw Authorization header value, runs the live
	// status gate and maps the role. It returns the caller's Principal.
	Authenticate(ctx context.Context, authorization string) (*domain.Principal, error)
}

// CreateAccountInput is the payload for provisioning an account.
type CreateAccountInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// AccountService is the administrative surface over the credential store.
type AccountService interface {
	Create(ctx context.Context, actor *domain.Principal, in CreateAccountInput) (*domain.Account, error)
	SetStatus(ctx context.Context, actor *domain.Principal, id, status string) (*domain.Account, error)
	SetRole(ctx context.Context, actor *domain.Principal, id, role string) (*domain.Account, error)
	List(ctx context.Context, filter ListAccountsFilter) ([]*domain.Account, int64, error)
	// EnsureBootstrap creates a superadmin when no account with email exists.
	EnsureBootstrap(ctx context.Context, email, password, name string) error
}
