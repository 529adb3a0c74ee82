package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailops/account-system/internal/api/metrics"
	"github.com/retailops/account-system/internal/core/domain"
	"github.com/retailops/account-system/internal/core/ports"
)

// AccountHandler exposes the admin-facing account lifecycle operations.
type AccountHandler struct {
	authService ports.AuthService
}

func NewAccountHandler(authService ports.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// Delete soft-deletes an account.
//
// @Summary      Soft-delete an account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	if err := h.authService.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.LifecycleChangesTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, statusResponse{Status: "account deleted"})
}

// Restore reverses a soft delete.
//
// @Summary      Restore a soft-deleted account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id}/restore [post]
func (h *AccountHandler) Restore(c echo.Context) error {
	if err := h.authService.RestoreUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.LifecycleChangesTotal.WithLabelValues("restore").Inc()
	return c.JSON(http.StatusOK, statusResponse{Status: "account restored"})
}

// ChangeRole replaces the account's role. The super-admin tier can never be
// assigned through this endpoint.
//
// @Summary      Change an account's role
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Account ID"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /accounts/{id}/role [put]
func (h *AccountHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangeUserRole(c.Request().Context(), c.Param("id"), domain.Role(req.Role)); err != nil {
		return err
	}
	metrics.LifecycleChangesTotal.WithLabelValues("role_change").Inc()
	return c.JSON(http.StatusOK, statusResponse{Status: "role changed"})
}

// Availability reports whether a username and/or email is already taken.
//
// @Summary      Check username/email availability
// @Tags         accounts
// @Produce      json
// @Param        username  query     string  false  "Username to check"
// @Param        email     query     string  false  "Email to check"
// @Success      200       {object}  availabilityResponse
// @Router       /accounts/availability [get]
func (h *AccountHandler) Availability(c echo.Context) error {
	username := c.QueryParam("username")
	email := c.QueryParam("email")
	if username == "" && email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username or email query parameter is required")
	}

	var resp availabilityResponse
	if username != "" {
		taken, err := h.authService.IsUsernameTaken(c.Request().Context(), username)
		if err != nil {
			return err
		}
		resp.UsernameTaken = &taken
	}
	if email != "" {
		taken, err := h.authService.IsEmailTaken(c.Request().Context(), email)
		if err != nil {
			return err
		}
		resp.EmailTaken = &taken
	}

	return c.JSON(http.StatusOK, resp)
}
