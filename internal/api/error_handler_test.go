package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepoint/identity-service/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"expired", domain.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{"bad credentials", domain.ErrBadCredentials, http.StatusUnauthorized, "bad_credentials"},
		{"account missing", domain.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
		{"duplicate handle", domain.ErrDuplicateHandle, http.StatusConflict, "duplicate_handle"},
		{"duplicate email", domain.ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
		{"provider conflict", domain.ErrProviderConflict, http.StatusConflict, "provider_conflict"},
		{"conflicting email", domain.ErrConflictingEmail, http.StatusConflict, "conflicting_email"},
		{"missing credential", domain.ErrMissingCredential, http.StatusBadRequest, "missing_credential"},
		{"oauth state", domain.ErrInvalidOAuthState, http.StatusBadRequest, "invalid_oauth_state"},
		{"wrapped invalid input", fmt.Errorf("%w: bad role", domain.ErrInvalidInput), http.StatusUnprocessableEntity, "invalid_input"},
		{"password over limit", fmt.Errorf("signup: %w: password must be at most 72 bytes", domain.ErrInvalidInput), http.StatusUnprocessableEntity, "invalid_input"},
		{"provider rejected code", fmt.Errorf("%w: google: invalid_grant", domain.ErrFederatedExchangeFailed), http.StatusBadRequest, "federated_exchange_failed"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unsupported provider", domain.ErrUnsupportedProvider, http.StatusNotFound, "unsupported_provider"},
		{"echo validation", echo.NewHTTPError(http.StatusUnprocessableEntity, "username is required"), http.StatusUnprocessableEntity, "invalid_input"},
		{"echo unauthorized", echo.NewHTTPError(http.StatusUnauthorized, "authentication required"), http.StatusUnauthorized, "authentication_required"},
		{"route not found", echo.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Code != tc.code || body.Error == "" {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestHTTPErrorHandler_DoesNotLeakInternalErrors(t *testing.T) {
	var logs bytes.Buffer
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec)

	NewHTTPErrorHandler(zerolog.New(&logs))(errors.New("mongo: server selection timeout"), c)

	if strings.Contains(rec.Body.String(), "mongo") {
		t.Fatalf("internal error leaked to client: %s", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "server selection timeout") {
		t.Fatalf("internal error was not logged: %s", logs.String())
	}
}

func TestHTTPErrorHandler_RendersSentinelMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"decoder detail",
			fmt.Errorf("%w: malformed user info: %v", domain.ErrFederatedIdentityIncomplete, errors.New("invalid character '<' looking for beginning of value")),
			"identity provider returned no subject",
		},
		{
			"provider response",
			fmt.Errorf("%w: github: oauth2: \"bad_verification_code\"", domain.ErrFederatedExchangeFailed),
			"identity provider rejected the authorization",
		},
		{
			"invalid input keeps its detail",
			fmt.Errorf("signup: %w: password must be at most 72 bytes", domain.ErrInvalidInput),
			"invalid input: password must be at most 72 bytes",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/oauth2/google/callback", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, body.Error)
			}
		})
	}
}
