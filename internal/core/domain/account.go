package domain

import (
	"fmt"
	"strings"
	"time"
)

// Account is the authenticated principal. All fields are unexported; state
// changes only happen through the named transition methods below, which keep
// the entity internally consistent even when the caller aborts before
// persisting.
type Account struct {
	id       string
	username string
	fullName string
	email    string
	phone    string
	role     Role

	isDeleted bool
	deletedAt *time.Time

	mustChangePassword bool
	lastLoginAt        *time.Time

	refreshToken          string
	refreshTokenExpiresAt *time.Time

	createdAt time.Time
	updatedAt time.Time
}

// NewAccount constructs a fresh account: active, mustChangePassword set, no
// refresh token, no last login. Identity fields must be non-empty and the
// role must be a member of the defined set.
func NewAccount(id, username, fullName, email, phone string, role Role, now time.Time) (*Account, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return nil, fmt.Errorf("%w: id is required", ErrInvalidData)
	case strings.TrimSpace(username) == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidData)
	case strings.TrimSpace(fullName) == "":
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidData)
	case strings.TrimSpace(email) == "":
		return nil, fmt.Errorf("%w: email is required", ErrInvalidData)
	case strings.TrimSpace(phone) == "":
		return nil, fmt.Errorf("%w: phone number is required", ErrInvalidData)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q is not defined", ErrInvalidData, role)
	}

	return &Account{
		id:                 id,
		username:           username,
		fullName:           fullName,
		email:              email,
		phone:              phone,
		role:               role,
		mustChangePassword: true,
		createdAt:          now.UTC(),
		updatedAt:          now.UTC(),
	}, nil
}

// Login records a successful authentication. Fails on a soft-deleted account.
func (a *Account) Login(now time.Time) error {
	if a.isDeleted {
		return fmt.Errorf("%w: account is deleted", ErrInvalidOperation)
	}
	t := now.UTC()
	a.lastLoginAt = &t
	a.updatedAt = t
	return nil
}

// MarkDeleted soft-deletes the account and revokes any outstanding refresh
// token in the same mutation.
func (a *Account) MarkDeleted(now time.Time) {
	t := now.UTC()
	a.isDeleted = true
	a.deletedAt = &t
	a.updatedAt = t
	a.RevokeRefreshToken(now)
}

// Restore reverses a soft delete. A refresh token revoked by MarkDeleted is
// not brought back; the account must log in again.
func (a *Account) Restore(now time.Time) {
	a.isDeleted = false
	a.deletedAt = nil
	a.updatedAt = now.UTC()
}

// ChangeRole replaces the account's role. The super-admin tier is
// bootstrap-only and can never be reached through this path.
func (a *Account) ChangeRole(newRole Role, now time.Time) error {
	if a.isDeleted {
		return fmt.Errorf("%w: account is deleted", ErrInvalidOperation)
	}
	if newRole == RoleSuperAdmin {
		return fmt.Errorf("%w: role %q cannot be assigned", ErrInvalidOperation, RoleSuperAdmin)
	}
	if !newRole.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}
	a.role = newRole
	a.updatedAt = now.UTC()
	return nil
}

// PasswordChanged clears the must-change-password flag.
func (a *Account) PasswordChanged(now time.Time) {
	a.mustChangePassword = false
	a.updatedAt = now.UTC()
}

// SetRefreshToken stores the single outstanding refresh token for the
// account. Fails on a soft-deleted account.
func (a *Account) SetRefreshToken(token string, expiresAt, now time.Time) error {
	if a.isDeleted {
		return fmt.Errorf("%w: account is deleted", ErrInvalidOperation)
	}
	exp := expiresAt.UTC()
	a.refreshToken = token
	a.refreshTokenExpiresAt = &exp
	a.updatedAt = now.UTC()
	return nil
}

// RevokeRefreshToken clears both refresh-token fields. Idempotent.
func (a *Account) RevokeRefreshToken(now time.Time) {
	a.refreshToken = ""
	a.refreshTokenExpiresAt = nil
	a.updatedAt = now.UTC()
}

// HasValidRefreshToken reports whether a refresh token is outstanding and
// not yet expired at the given instant. Expiry is only ever checked lazily,
// at use time.
func (a *Account) HasValidRefreshToken(now time.Time) bool {
	if a.refreshToken == "" || a.refreshTokenExpiresAt == nil {
		return false
	}
	return now.Before(*a.refreshTokenExpiresAt)
}

func (a *Account) ID() string { return a.id }
func (a *Account) Username() string { return a.username }
func (a *Account) FullName() string { return a.fullName }
func (a *Account) Email() string { return a.email }
func (a *Account) Phone() string { return a.phone }
func (a *Account) Role() Role { return a.role }
func (a *Account) IsDeleted() bool { return a.isDeleted }
func (a *Account) DeletedAt() *time.Time { return a.deletedAt }
func (a *Account) MustChangePassword() bool { return a.mustChangePassword }
func (a *Account) LastLoginAt() *time.Time { return a.lastLoginAt }
func (a *Account) RefreshToken() string { return a.refreshToken }
func (a *Account) RefreshTokenExpiresAt() *time.Time {
	return a.refreshTokenExpiresAt
}
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) UpdatedAt() time.Time { return a.updatedAt }

// AccountRecord is the flattened persistence shape of an Account. It exists
// so repositories can store and rehydrate accounts without the entity
// growing public setters.
type AccountRecord struct {
	ID                    string
	Username              string
	FullName              string
	Email                 string
	Phone                 string
	Role                  Role
	IsDeleted             bool
	DeletedAt             *time.Time
	MustChangePassword    bool
	LastLoginAt           *time.Time
	RefreshToken          string
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Snapshot returns the persistence view of the account.
func (a *Account) Snapshot() AccountRecord {
	return AccountRecord{
		ID:                    a.id,
		Username:              a.username,
		FullName:              a.fullName,
		Email:                 a.email,
		Phone:                 a.phone,
		Role:                  a.role,
		IsDeleted:             a.isDeleted,
		DeletedAt:             a.deletedAt,
		MustChangePassword:    a.mustChangePassword,
		LastLoginAt:           a.lastLoginAt,
		RefreshToken:          a.refreshToken,
		RefreshTokenExpiresAt: a.refreshTokenExpiresAt,
		CreatedAt:             a.createdAt,
		UpdatedAt:             a.updatedAt,
	}
}

// Rehydrate rebuilds an Account from its stored record. It trusts the store
// and performs no validation.
func Rehydrate(r AccountRecord) *Account {
	return &Account{
		id:                    r.ID,
		username:              r.Username,
		fullName:              r.FullName,
		email:                 r.Email,
		phone:                 r.Phone,
		role:                  r.Role,
		isDeleted:             r.IsDeleted,
		deletedAt:             r.DeletedAt,
		mustChangePassword:    r.MustChangePassword,
		lastLoginAt:           r.LastLoginAt,
		refreshToken:          r.RefreshToken,
		refreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		createdAt:             r.CreatedAt,
		updatedAt:             r.UpdatedAt,
	}
}
