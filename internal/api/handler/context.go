package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailops/account-system/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: the account id and
// role must both be present (presence proves the middleware ran).
func ctxClaims(c echo.Context) (accountID string, role domain.Role, err error) {
	accountID, _ = c.Get("account_id").(string)
	roleStr, _ := c.Get("role").(string)
	if accountID == "" || roleStr == "" {
		return "", domain.RoleNone, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return accountID, domain.Role(roleStr), nil
}
