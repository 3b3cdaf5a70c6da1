package domain

import "time"

// AuthEventKind classifies an audited authentication outcome.
type AuthEventKind string

const (
	EventLoginSucceeded     AuthEventKind = "login_succeeded"
	EventLoginFailed        AuthEventKind = "login_failed"
	EventLoginInactive      AuthEventKind = "login_inactive"
	EventLoginThrottled     AuthEventKind = "login_throttled"
	EventStatusGateRejected AuthEventKind = "status_gate_rejected"
	EventStatusChanged      AuthEventKind = "status_changed"
	EventRoleChanged        AuthEventKind = "role_changed"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	Kind      AuthEventKind
	AccountID string
	Email     string
	ActorID   string
	Detail    string
	At        time.Time
}
