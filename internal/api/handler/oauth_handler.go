package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/identity-service/internal/core/ports"
)

// ProviderLookup resolves the :provider route parameter.
type ProviderLookup interface {
	Lookup(registrationID string) (ports.IdentityProvider, error)
}

// OAuthHandler runs the authorization code flow for federated login.
type OAuthHandler struct {
	authService ports.AuthService
	lookup      ProviderLookup
	states      ports.OAuthStateStore
}

func NewOAuthHandler(authService ports.AuthService, lookup ProviderLookup, states ports.OAuthStateStore) *OAuthHandler {
	return &OAuthHandler{authService: authService, lookup: lookup, states: states}
}

// Authorize redirects the browser to the provider's consent page.
//
// @Summary      Start federated login
// @Tags         auth
// @Param        provider  path  string  true  "google, github or facebook"
// @Success      302
// @Failure      404  {object}  errorResponse
// @Router       /auth/oauth2/{provider}/authorize [get]
func (h *OAuthHandler) Authorize(c echo.Context) error {
	provider, err := h.lookup.Lookup(c.Param("provider"))
	if err != nil {
		return err
	}
	state, err := h.states.Issue(c.Request().Context(), provider.Provider())
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Callback completes federated login and returns a session token.
//
// @Summary      Federated login callback
// @Tags         auth
// @Produce      json
// @Param        provider  path   string  true   "google, github or facebook"
// @Param        state     query  string  true   "State issued by authorize"
// @Param        code      query  string  true   "Authorization code"
// @Success      200  {object}  loginResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /auth/oauth2/{provider}/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider, err := h.lookup.Lookup(c.Param("provider"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if err := h.states.Consume(ctx, c.QueryParam("state"), provider.Provider()); err != nil {
		return err
	}
	if reason := c.QueryParam("error"); reason != "" {
		return echo.NewHTTPError(http.StatusBadRequest, "authorization denied: "+reason)
	}

	identity, err := provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		return err
	}
	res, err := h.authService.ReconcileFederated(ctx, identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLoginResponse(res))
}
