package domain

import "time"

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	AccountID int64
	Handle    string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
