package domain

import (
	"errors"
	"strings"
)

// ErrorCode returns the stable, machine-readable code for err, or
// "internal_error" when err is not a known domain error.
func ErrorCode(err error) string {
	if c, ok := lookup(err); ok {
		return c.code
	}
	return "internal_error"
}

// PublicMessage returns the text a client may see for a domain error: the
// sentinel's own message, so wrapped causes from drivers or providers stay
// in the logs. Invalid input keeps the detail this service wrote after the
// sentinel. ok is false when err is not a domain error.
func PublicMessage(err error) (msg string, ok bool) {
	c, ok := lookup(err)
	if !ok {
		return "", false
	}
	if c.err == ErrInvalidInput {
		full, head := err.Error(), c.err.Error()
		if i := strings.Index(full, head); i >= 0 {
			return full[i:], true
		}
	}
	return c.err.Error(), true
}

func lookup(err error) (errorCodeEntry, bool) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c, true
		}
	}
	return errorCodeEntry{}, false
}

type errorCodeEntry struct {
	err  error
	code string
}

var errorCodes = []errorCodeEntry{
	{ErrTokenExpired, "token_expired"},
	{ErrTokenInvalid, "invalid_token"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrBadCredentials, "bad_credentials"},
	{ErrDuplicateHandle, "duplicate_handle"},
	{ErrDuplicateEmail, "duplicate_email"},
	{ErrMissingCredential, "missing_credential"},
	{ErrProviderConflict, "provider_conflict"},
	{ErrConflictingEmail, "conflicting_email"},
	{ErrInvalidInput, "invalid_input"},
	{ErrForbidden, "forbidden"},
	{ErrProfileNotFound, "profile_not_found"},
	{ErrProfileConflict, "profile_conflict"},
	{ErrUnsupportedProvider, "unsupported_provider"},
	{ErrInvalidOAuthState, "invalid_oauth_state"},
	{ErrFederatedIdentityIncomplete, "federated_identity_incomplete"},
	{ErrFederatedExchangeFailed, "federated_exchange_failed"},
}
