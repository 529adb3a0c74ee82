package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailops/account-system/internal/api/metrics"
	"github.com/retailops/account-system/internal/core/domain"
	"github.com/retailops/account-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register provisions a new account with a system-generated initial password.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(result.Role.String()).Inc()

	return c.JSON(http.StatusCreated, registerResponse{
		AccountID:          result.AccountID,
		Username:           result.Username,
		Role:               result.Role.String(),
		MustChangePassword: result.MustChangePassword,
	})
}

// Login authenticates an account and returns an access/refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      423   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginFailureReason(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{
		AccountID:          result.AccountID,
		Username:           result.Username,
		Role:               result.Role.String(),
		MustChangePassword: result.MustChangePassword,
		LastLoginAt:        result.LastLoginAt,
		AccessToken:        result.Tokens.AccessToken,
		RefreshToken:       result.Tokens.RefreshToken,
	})
}

// Refresh rotates the account's refresh token and returns a new pair.
//
// @Summary      Rotate refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Account whose token to rotate"
// @Success      200   {object}  tokenPairResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.authService.RefreshToken(c.Request().Context(), req.AccountID)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(refreshFailureReason(err)).Inc()
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the caller's refresh token. Always succeeds from the
// caller's point of view.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statusResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	accountID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), accountID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "logged out"})
}

// ChangePassword rotates the caller's password and clears the
// must-change-password flag.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	accountID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangePassword(c.Request().Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "password changed"})
}

func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrLockedOut):
		return "locked_out"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidOperation):
		return "deleted"
	default:
		return "error"
	}
}

func refreshFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	default:
		return "error"
	}
}
