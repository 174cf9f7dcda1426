package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// domainStatus maps every stable error code to its HTTP status.
var domainStatus = map[string]int{
	"token_expired":                 http.StatusUnauthorized,
	"invalid_token":                 http.StatusUnauthorized,
	"bad_credentials":               http.StatusUnauthorized,
	"account_not_found":             http.StatusNotFound,
	"profile_not_found":             http.StatusNotFound,
	"unsupported_provider":          http.StatusNotFound,
	"duplicate_handle":              http.StatusConflict,
	"duplicate_email":               http.StatusConflict,
	"provider_conflict":             http.StatusConflict,
	"conflicting_email":             http.StatusConflict,
	"profile_conflict":              http.StatusConflict,
	"missing_credential":            http.StatusBadRequest,
	"invalid_oauth_state":           http.StatusBadRequest,
	"federated_identity_incomplete": http.StatusBadRequest,
	"federated_exchange_failed":     http.StatusBadRequest,
	"invalid_input":                 http.StatusUnprocessableEntity,
	"forbidden":                     http.StatusForbidden,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and stable code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpErrorCode(he.Code)}
	}

	code := domain.ErrorCode(err)
	if status, ok := domainStatus[code]; ok {
		msg, _ := domain.PublicMessage(err)
		log.Debug().Err(err).Str("code", code).Str("path", c.Path()).Msg("request failed")
		return status, errorResponse{Error: msg, Code: code}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: code}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "authentication_required"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "request_error"
}
