package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicportal/portal-auth/internal/core/domain"
	"github.com/clinicportal/portal-auth/internal/core/ports"
)

type authService struct {
	repo     ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	throttle ports.LoginThrottle
	audit    ports.AuditRecorder
	log      zerolog.Logger
	dummy    string
	now      func() time.Time
}

// NewAuthService returns the login and per-request authentication pipeline.
// throttle and audit are optional.
func NewAuthService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	throttle ports.LoginThrottle,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.AuthService {
	if throttle == nil {
		throttle = noopThrottle{}
	}
	if audit == nil {
		audit = noopAudit{}
	}
	return &authService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		audit:    audit,
		log:      log,
		dummy:    dummyDigest(hasher),
		now:      time.Now,
	}
}

// Login verifies the credentials and issues a session token.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}

	// 1. Throttle before touching the store. While an email is locked this
	// outranks the inactive and invalid-credentials outcomes. Backend errors
	// never block login.
	allowed, err := s.throttle.Allowed(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("login throttle unavailable")
	} else if !allowed {
		s.record(domain.EventLoginThrottled, "", email, "")
		return nil, domain.ErrTooManyAttempts
	}

	// 2. Look up the account. A missing email still pays for one bcrypt
	// comparison and fails with the same error as a wrong password.
	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.hasher.Verify(password, s.dummy)
		s.failed(ctx, "", email, "unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeError("login", err)
	}

	// 3. Inactive accounts never authenticate, whatever the password.
	if !account.Status.IsActive() {
		s.record(domain.EventLoginInactive, account.ID, email, string(account.Status))
		return nil, domain.ErrAccountInactive
	}

	// 4. Hashed comparison only.
	if !s.hasher.Verify(password, account.PasswordDigest) {
		s.failed(ctx, account.ID, email, "wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	// 5. Issue the token.
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to reset login throttle")
	}
	s.record(domain.EventLoginSucceeded, account.ID, email, "")

	role, mapped := domain.MapRole(string(account.Role))
	if !mapped {
		s.log.Warn().Str("account_id", account.ID).Str("role", string(account.Role)).Msg("unmapped role passed through")
	}

	s.log.Info().Str("account_id", account.ID).Str("role", string(role)).Msg("login succeeded")

	return &domain.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      role,
	}, nil
}

// Authenticate runs token verification, the live status gate and the role
// mapper, in that order. The mapper is applied here and nowhere else, to the
// role currently stored for the account.
func (s *authService) Authenticate(ctx context.Context, authorization string) (*domain.Principal, error) {
	// 1. Bearer extraction.
	raw, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	// 2. Signature and expiry.
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	// 3. Live status gate: fail closed on store errors.
	account, err := s.repo.FindByID(ctx, claims.ID)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		s.record(domain.EventStatusGateRejected, claims.ID, claims.Email, "missing")
		return nil, domain.ErrAccountInactiveOrMissing
	case err != nil:
		s.log.Error().Err(err).Str("account_id", claims.ID).Msg("status gate lookup failed")
		return nil, storeError("authenticate", err)
	case !account.Status.IsActive():
		s.record(domain.EventStatusGateRejected, claims.ID, claims.Email, string(account.Status))
		return nil, domain.ErrAccountInactiveOrMissing
	}

	// 4. Role mapping from the live record, so a demotion applies on the
	// next request rather than at token expiry.
	if string(account.Role) != claims.Role {
		s.log.Info().
			Str("account_id", claims.ID).
			Str("token_role", claims.Role).
			Str("current_role", string(account.Role)).
			Msg("role changed since token issue")
	}
	role, mapped := domain.MapRole(string(account.Role))
	if !mapped {
		s.log.Warn().Str("account_id", claims.ID).Str("role", string(account.Role)).Msg("unmapped role passed through")
	}

	return &domain.Principal{Claims: *claims, EffectiveRole: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", domain.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", domain.ErrMissingToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}

func (s *authService) failed(ctx context.Context, accountID, email, detail string) {
	if err := s.throttle.Fail(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to record login failure")
	}
	s.record(domain.EventLoginFailed, accountID, email, detail)
}

func (s *authService) record(kind domain.AuthEventKind, accountID, email, detail string) {
	s.audit.Record(domain.AuthEvent{
		Kind:      kind,
		AccountID: accountID,
		Email:     email,
		Detail:    detail,
		At:        s.now().UTC(),
	})
}

// storeError guarantees the chain carries ErrStoreUnavailable.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

type noopThrottle struct{}

func (noopThrottle) Allowed(context.Context, string) (bool, error) { return true, nil }
func (noopThrottle) Fail(context.Context, string) error            { return nil }
func (noopThrottle) Reset(context.Context, string) error           { return nil }

type noopAudit struct{}

func (noopAudit) Record(domain.AuthEvent) {}
