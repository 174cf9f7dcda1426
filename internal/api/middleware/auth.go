package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
	"github.com/carepoint/identity-service/internal/pkg/metrics"
)

// errorBody mirrors the API error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const bearerPrefix = "Bearer "

// Authenticate resolves the bearer token, if any, into a domain.Principal on
// the request context. Requests without a bearer credential pass through
// unauthenticated; expired and invalid tokens are rejected with 401.
//
// Roles are read from the stored account on every request, so a role change
// applies to tokens issued before it.
func Authenticate(tokens ports.TokenService, accounts ports.AccountReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if domain.PrincipalFromContext(req.Context()) != nil {
				return next(c)
			}

			raw, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.TokenVerificationsTotal.WithLabelValues("expired").Inc()
					return c.JSON(http.StatusUnauthorized, errorBody{Error: "token expired", Code: "token_expired"})
				}
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return invalidToken(c)
			}

			account, err := accounts.FindByID(req.Context(), claims.AccountID)
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					metrics.TokenVerificationsTotal.WithLabelValues("account_missing").Inc()
					return invalidToken(c)
				}
				return fmt.Errorf("authenticate: %w", err)
			}

			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
			p := domain.NewPrincipal(account)
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

// bearerToken accepts exactly "Bearer <token>". Anything else counts as no
// credential at all.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func invalidToken(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid token", Code: "invalid_token"})
}
