package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// RequireAuthenticated rejects requests that carry no principal.
func RequireAuthenticated() echo.MiddlewareFunc {
	return guard(func(*domain.Principal) bool { return true })
}

// RequireRole lets the request through when the principal holds any of roles.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return guard(func(p *domain.Principal) bool { return p.HasAnyRole(roles...) })
}

// RequirePermission lets the request through when one of the principal's
// roles grants perm.
func RequirePermission(perm domain.Permission) echo.MiddlewareFunc {
	return guard(func(p *domain.Principal) bool { return p.HasPermission(perm) })
}

func guard(allowed func(*domain.Principal) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := domain.PrincipalFromContext(c.Request().Context())
			if p == nil {
				return c.JSON(http.StatusUnauthorized, errorBody{Error: "authentication required", Code: "authentication_required"})
			}
			if !allowed(p) {
				return c.JSON(http.StatusForbidden, errorBody{Error: "forbidden", Code: "forbidden"})
			}
			return next(c)
		}
	}
}
