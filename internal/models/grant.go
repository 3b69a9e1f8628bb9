package models

import "time"

// GrantScope identifies the entity a grant applies to.
type GrantScope string

const (
	ScopeVideo    GrantScope = "video"
	ScopeCategory GrantScope = "category"
)

// AccessGrant is an immutable record of a successful redemption. Expiry is
// evaluated at read time; a nil ExpiresAt never expires.
type AccessGrant struct {
	ID           string     `db:"id"`
	Scope        GrantScope `db:"scope"`
	ScopeID      string     `db:"scope_id"`
	UserID       *string    `db:"user_id"`
	SessionToken *string    `db:"session_token"`
	Code         string     `db:"code"`
	GrantedAt    time.Time  `db:"granted_at"`
	ExpiresAt    *time.Time `db:"expires_at"`
}
