package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicportal/portal-auth/internal/core/domain"
	"github.com/clinicportal/portal-auth/internal/core/ports"
)

const (
	defaultPageLimit  = 20
	maxPageLimit      = 100
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit in bytes
)

type accountService struct {
	repo   ports.AccountRepository
	hasher ports.PasswordHasher
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
}

// NewAccountService returns the administrative account service.
func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.AccountService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &accountService{repo: repo, hasher: hasher, audit: audit, log: log, now: time.Now}
}

// Create provisions an active account. Privileged roles can only be granted
// by a superadmin.
func (s *accountService) Create(ctx context.Context, actor *domain.Principal, in ports.CreateAccountInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("invalid email: %w", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, domain.ErrValidation)
	}
	if len(in.Password) > maxPasswordLength {
		return nil, fmt.Errorf("password must be at most %d bytes: %w", maxPasswordLength, domain.ErrValidation)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	role, err := domain.ParseInternalRole(in.Role)
	if err != nil {
		return nil, err
	}
	if err := requireGrant(actor, role); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordDigest: digest,
		Role:           role,
		Status:         domain.StatusActive,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("account_id", account.ID).
		Str("role", string(role)).
		Str("actor_id", actorID(actor)).
		Msg("account created")
	return account, nil
}

// SetStatus flips activation. Deactivation is observed by the live status
// gate on the account's next request.
func (s *accountService) SetStatus(ctx context.Context, actor *domain.Principal, id, status string) (*domain.Account, error) {
	next, err := domain.ParseAccountStatus(status)
	if err != nil {
		return nil, fmt.Errorf("status must be active or inactive: %w", err)
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.ID == target.ID && !next.IsActive() {
		return nil, fmt.Errorf("cannot deactivate own account: %w", domain.ErrForbidden)
	}
	if err := requireGrant(actor, target.Role); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	target.Status = next
	target.UpdatedAt = s.now().UTC()

	s.audit.Record(domain.AuthEvent{
		Kind:      domain.EventStatusChanged,
		AccountID: target.ID,
		Email:     target.Email,
		ActorID:   actorID(actor),
		Detail:    string(next),
		At:        target.UpdatedAt,
	})
	s.log.Info().Str("account_id", id).Str("status", string(next)).Str("actor_id", actorID(actor)).Msg("account status changed")
	return target, nil
}

// SetRole changes the persisted role. Both the current and the new role must
// be grantable by the actor. Tokens already issued keep their role until they
// expire.
func (s *accountService) SetRole(ctx context.Context, actor *domain.Principal, id, role string) (*domain.Account, error) {
	next, err := domain.ParseInternalRole(role)
	if err != nil {
		return nil, err
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireGrant(actor, target.Role); err != nil {
		return nil, err
	}
	if err := requireGrant(actor, next); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, id, next); err != nil {
		return nil, err
	}
	target.Role = next
	target.UpdatedAt = s.now().UTC()

	s.audit.Record(domain.AuthEvent{
		Kind:      domain.EventRoleChanged,
		AccountID: target.ID,
		Email:     target.Email,
		ActorID:   actorID(actor),
		Detail:    string(next),
		At:        target.UpdatedAt,
	})
	s.log.Info().Str("account_id", id).Str("role", string(next)).Str("actor_id", actorID(actor)).Msg("account role changed")
	return target, nil
}

func (s *accountService) List(ctx context.Context, filter ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, 0, domain.ErrUnknownRole
	}
	return s.repo.List(ctx, filter)
}

// EnsureBootstrap seeds the first superadmin. An existing account with the
// same email is left untouched.
func (s *accountService) EnsureBootstrap(ctx context.Context, email, password, name string) error {
	_, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = "Super Admin"
	}

	_, err = s.Create(ctx, &domain.Principal{EffectiveRole: domain.EffectiveSuperAdmin}, ports.CreateAccountInput{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     string(domain.RoleSuperAdmin),
	})
	if errors.Is(err, domain.ErrAccountExists) {
		return nil
	}
	return err
}

// requireGrant admits superadmins for every role and admins for the
// non-privileged ones.
func requireGrant(actor *domain.Principal, role domain.InternalRole) error {
	if actor == nil {
		return domain.ErrForbidden
	}
	switch actor.EffectiveRole {
	case domain.EffectiveSuperAdmin:
		return nil
	case domain.EffectiveAdmin:
		if role.IsPrivileged() {
			return fmt.Errorf("role %s requires superadmin: %w", role, domain.ErrForbidden)
		}
		return nil
	default:
		return domain.ErrForbidden
	}
}

func actorID(actor *domain.Principal) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
