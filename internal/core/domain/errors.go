package domain

import "errors"

var (
	ErrValidation               = errors.New("validation failed")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountInactive          = errors.New("account is inactive")
	ErrMissingToken             = errors.New("missing bearer token")
	ErrInvalidOrExpiredToken    = errors.New("invalid or expired token")
	ErrAccountInactiveOrMissing = errors.New("account inactive or missing")
	ErrForbidden                = errors.New("access forbidden")
	ErrStoreUnavailable         = errors.New("credential store unavailable")
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountExists            = errors.New("account already exists")
	ErrUnknownRole              = errors.New("unknown role")
	ErrTooManyAttempts          = errors.New("too many login attempts")
)
