package domain

import "time"

// TokenClaims is the identity carried by a bearer token. Role is empty for
// volunteer and intern tokens.
type TokenClaims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the claims grant admin access.
func (c TokenClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
