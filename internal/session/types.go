// Package session provides SQLite-backed local state: the signed-in
// identity credential and the practice sessions started from this machine.
package session

import "time"

// Credential is the persisted identity-service session.
type Credential struct {
	ID           string
	UserID       string
	Email        string
	DisplayName  string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the access token has passed its expiry.
// A zero ExpiresAt never expires.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Practice statuses.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Practice records a remote interview session started or resumed locally.
type Practice struct {
	ID        string // remote session id
	UserID    string
	Topic     string
	Level     string
	Status    string // active, ended
	Answered  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
