package ports

import (
	"context"
	"time"

	"github.com/retailops/account-system/internal/core/domain"
)

// RegisterInput carries the fields needed to provision a new account.
type RegisterInput struct {
	Username string
	FullName string
	Email    string
	Phone    string
	Role     domain.Role
}

// TokenPair is the produced access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccountID          string
	Username           string
	Role               domain.Role
	MustChangePassword bool
	LastLoginAt        time.Time
	Tokens             TokenPair
}

// RegisterResult describes a newly provisioned account. Registration never
// authenticates, so no tokens are returned.
type RegisterResult struct {
	AccountID          string
	Username           string
	Role               domain.Role
	MustChangePassword bool
}

// AuthService orchestrates the account authentication and lifecycle use
// cases. Expected business failures are returned as the sentinel errors in
// the domain package; anything else is an unexpected internal fault.
type AuthService interface {
	Login(ctx context.Context, username, secret string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	RefreshToken(ctx context.Context, accountID string) (*TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	DeleteUser(ctx context.Context, accountID string) error
	RestoreUser(ctx context.Context, accountID string) error
	ChangeUserRole(ctx context.Context, accountID string, newRole domain.Role) error
	ChangePassword(ctx context.Context, accountID, current, newSecret string) error
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
}
