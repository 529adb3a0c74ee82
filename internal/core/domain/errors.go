package domain

import "errors"

// Sentinel errors shared across the service and transport layers. Expected
// business failures are always one of these; anything else is treated as an
// unexpected internal error by the API error handler.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrLockedOut           = errors.New("account locked out")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrInvalidRole         = errors.New("invalid role")
	ErrUsernameExists      = errors.New("username already exists")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidData         = errors.New("invalid account data")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrPasswordChange      = errors.New("password change failed")
)
