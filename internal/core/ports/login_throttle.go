package ports

import "context"

// LoginThrottle counts failed logins per email within a sliding window.
type LoginThrottle interface {
	// Allowed reports whether another attempt may be made for email.
	Allowed(ctx context.Context, email string) (bool, error)
	// Fail records a failed attempt.
	Fail(ctx context.Context, email string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, email string) error
}
