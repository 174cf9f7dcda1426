package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/identity-service/internal/core/ports"
)

// AccountHandler exposes account administration.
type AccountHandler struct {
	authService ports.AuthService
}

func NewAccountHandler(authService ports.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// Get returns an account by id.
//
// @Summary      Get account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Account id"
// @Success      200  {object}  domain.Account
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/accounts/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	account, err := h.authService.FindAccount(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateRoles replaces an account's roles. Takes effect on the account's
// next request, even with a token issued before the change.
//
// @Summary      Replace account roles
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                 true  "Account id"
// @Param        body  body  updateRolesRequest  true  "New roles"
// @Success      200  {object}  domain.Account
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/accounts/{id}/roles [put]
func (h *AccountHandler) UpdateRoles(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateRolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	roles, err := parseRoles(req.Roles)
	if err != nil {
		return err
	}

	account, err := h.authService.UpdateRoles(c.Request().Context(), id, roles)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}
