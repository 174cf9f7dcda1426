package domain

import "errors"

// Token errors. Callers must treat them differently: an expired token only
// needs a fresh login, an invalid one was never ours.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Identity errors.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrBadCredentials    = errors.New("bad credentials")
	ErrDuplicateHandle   = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrMissingCredential = errors.New("password is required for local sign up")
	ErrProviderConflict  = errors.New("email is already registered with another provider")
	ErrConflictingEmail  = errors.New("email is already registered with another account")
)

var (
	ErrInvalidInput                = errors.New("invalid input")
	ErrForbidden                   = errors.New("access forbidden")
	ErrProfileNotFound             = errors.New("profile not found")
	ErrProfileConflict             = errors.New("profile conflicts with an existing record")
	ErrUnsupportedProvider         = errors.New("unsupported identity provider")
	ErrInvalidOAuthState           = errors.New("invalid or expired oauth state")
	ErrFederatedIdentityIncomplete = errors.New("identity provider returned no subject")
	ErrFederatedExchangeFailed     = errors.New("identity provider rejected the authorization")
)
