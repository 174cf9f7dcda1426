package ports

import (
	"time"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// TokenService issues and verifies session tokens. Verify returns
// domain.ErrTokenExpired or domain.ErrTokenInvalid.
type TokenService interface {
	Issue(account *domain.Account) (token string, expiresAt time.Time, err error)
	Verify(token string) (*domain.TokenClaims, error)
}

// PasswordHasher hides the hash algorithm from the reconciler.
// Compare returns domain.ErrBadCredentials on mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
