package ports

import (
	"time"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// PasswordHasher turns plaintext into a one-way digest and checks it back.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer signs session tokens for verified accounts.
type TokenIssuer interface {
	Issue(account *domain.Account) (token string, expiresAt time.Time, err error)
}

// TokenVerifier validates a token's signature and expiry.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// TokenService issues and verifies session tokens with one signing key.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}
