package domain

import (
	"strings"
	"time"
)

// AccountStatus is the activation state of an Account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// IsActive reports whether s admits authentication. Anything other than
// "active" is treated as inactive.
func (s AccountStatus) IsActive() bool {
	return s == StatusActive
}

// ParseAccountStatus accepts only the two canonical values.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	default:
		return "", ErrValidation
	}
}

// Account is the durable identity record behind a login.
type Account struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	PasswordDigest string        `json:"-"`
	Role           InternalRole  `json:"role"`
	Status         AccountStatus `json:"status"`
	Name           string        `json:"name"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NormalizeEmail is the canonical form used as the login handle.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
