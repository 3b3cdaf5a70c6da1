package domain

import "time"

// Claims are the identity facts carried inside a session token.
type Claims struct {
	ID        string
	Name      string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the authenticated caller of a protected request: verified
// claims that passed the live status gate plus the mapped effective role.
type Principal struct {
	Claims
	EffectiveRole EffectiveRole
}

// LoginResult is returned by a successful login. Everything besides Token
// is informational for the client and is never trusted on later requests.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	ID        string
	Name      string
	Email     string
	Role      EffectiveRole
}
