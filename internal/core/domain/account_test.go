package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestAccount(t *testing.T, role Role) *Account {
	t.Helper()
	a, err := NewAccount("acc-1", "alice", "Alice A", "alice@x.com", "01000000000", role, time.Now())
	if err != nil {
		t.Fatalf("NewAccount returned error: %v", err)
	}
	return a
}

func TestNewAccount_Defaults(t *testing.T) {
	a := newTestAccount(t, RoleCashier)

	if a.IsDeleted() {
		t.Fatalf("new account should not be deleted")
	}
	if !a.MustChangePassword() {
		t.Fatalf("new account should require a password change")
	}
	if a.RefreshToken() != "" || a.RefreshTokenExpiresAt() != nil {
		t.Fatalf("new account should have no refresh token")
	}
	if a.LastLoginAt() != nil {
		t.Fatalf("new account should have no last login")
	}
}

func TestNewAccount_Validation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name                                  string
		id, username, fullName, email, phone string
		role                                  Role
	}{
		{"empty username", "id", "", "Alice A", "a@x.com", "0100", RoleCashier},
		{"empty full name", "id", "alice", "", "a@x.com", "0100", RoleCashier},
		{"empty email", "id", "alice", "Alice A", "", "0100", RoleCashier},
		{"empty phone", "id", "alice", "Alice A", "a@x.com", "", RoleCashier},
		{"sentinel role", "id", "alice", "Alice A", "a@x.com", "0100", RoleNone},
		{"unknown role", "id", "alice", "Alice A", "a@x.com", "0100", Role("janitor")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAccount(tc.id, tc.username, tc.fullName, tc.email, tc.phone, tc.role, now)
			if !errors.Is(err, ErrInvalidData) {
				t.Fatalf("expected ErrInvalidData, got %v", err)
			}
		})
	}
}

func TestAccount_LoginOnDeleted(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	a.MarkDeleted(time.Now())

	if err := a.Login(time.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if a.LastLoginAt() != nil {
		t.Fatalf("failed login must not set last login")
	}
}

func TestAccount_DeleteRevokesRefreshToken(t *testing.T) {
	a := newTestAccount(t, RoleManager)
	if err := a.SetRefreshToken("tok", time.Now().Add(time.Hour), time.Now()); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}

	a.MarkDeleted(time.Now())

	if !a.IsDeleted() || a.DeletedAt() == nil {
		t.Fatalf("delete marker fields inconsistent: deleted=%v at=%v", a.IsDeleted(), a.DeletedAt())
	}
	if a.RefreshToken() != "" || a.RefreshTokenExpiresAt() != nil {
		t.Fatalf("deleted account must not hold a refresh token")
	}
}

func TestAccount_RestoreDoesNotRestoreToken(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	_ = a.SetRefreshToken("tok", time.Now().Add(time.Hour), time.Now())
	a.MarkDeleted(time.Now())
	a.Restore(time.Now())

	if a.IsDeleted() || a.DeletedAt() != nil {
		t.Fatalf("restore should clear delete markers")
	}
	if a.RefreshToken() != "" {
		t.Fatalf("restore must not bring back the revoked refresh token")
	}
	if err := a.Login(time.Now()); err != nil {
		t.Fatalf("restored account should log in: %v", err)
	}
}

func TestAccount_SetRefreshTokenOnDeleted(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	a.MarkDeleted(time.Now())

	if err := a.SetRefreshToken("tok", time.Now().Add(time.Hour), time.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestAccount_RevokeRefreshTokenIdempotent(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	_ = a.SetRefreshToken("tok", time.Now().Add(time.Hour), time.Now())

	a.RevokeRefreshToken(time.Now())
	a.RevokeRefreshToken(time.Now())

	if a.RefreshToken() != "" || a.RefreshTokenExpiresAt() != nil {
		t.Fatalf("revoke must clear both fields")
	}
}

func TestAccount_ChangeRole(t *testing.T) {
	a := newTestAccount(t, RoleCashier)

	if err := a.ChangeRole(RoleManager, time.Now()); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if a.Role() != RoleManager {
		t.Fatalf("expected role %s, got %s", RoleManager, a.Role())
	}

	if err := a.ChangeRole(Role("janitor"), time.Now()); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if a.Role() != RoleManager {
		t.Fatalf("failed change must not alter role")
	}
}

func TestAccount_ChangeRoleToSuperAdmin(t *testing.T) {
	active := newTestAccount(t, RoleAdmin)
	if err := active.ChangeRole(RoleSuperAdmin, time.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("active account: expected ErrInvalidOperation, got %v", err)
	}

	deleted := newTestAccount(t, RoleAdmin)
	deleted.MarkDeleted(time.Now())
	if err := deleted.ChangeRole(RoleSuperAdmin, time.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("deleted account: expected ErrInvalidOperation, got %v", err)
	}
}

func TestAccount_ChangeRoleOnDeleted(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	a.MarkDeleted(time.Now())

	if err := a.ChangeRole(RoleManager, time.Now()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestAccount_PasswordChanged(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	a.PasswordChanged(time.Now())
	if a.MustChangePassword() {
		t.Fatalf("PasswordChanged should clear the flag")
	}
}

func TestAccount_HasValidRefreshToken(t *testing.T) {
	a := newTestAccount(t, RoleCashier)
	now := time.Now()

	if a.HasValidRefreshToken(now) {
		t.Fatalf("no token stored, should not be valid")
	}

	_ = a.SetRefreshToken("tok", now.Add(time.Hour), now)
	if !a.HasValidRefreshToken(now) {
		t.Fatalf("fresh token should be valid")
	}
	if a.HasValidRefreshToken(now.Add(2 * time.Hour)) {
		t.Fatalf("expired token should not be valid")
	}
}

func TestAccount_TransitionsUseInjectedClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewAccount("acc-1", "alice", "Alice A", "alice@x.com", "0100", RoleCashier, now)
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if a.UpdatedAt() != now {
		t.Fatalf("expected updatedAt %v, got %v", now, a.UpdatedAt())
	}

	steps := []struct {
		name string
		run  func(at time.Time)
	}{
		{"Login", func(at time.Time) { _ = a.Login(at) }},
		{"SetRefreshToken", func(at time.Time) { _ = a.SetRefreshToken("tok", at.Add(time.Hour), at) }},
		{"RevokeRefreshToken", func(at time.Time) { a.RevokeRefreshToken(at) }},
		{"ChangeRole", func(at time.Time) { _ = a.ChangeRole(RoleManager, at) }},
		{"PasswordChanged", func(at time.Time) { a.PasswordChanged(at) }},
		{"MarkDeleted", func(at time.Time) { a.MarkDeleted(at) }},
		{"Restore", func(at time.Time) { a.Restore(at) }},
	}

	for i, step := range steps {
		at := now.Add(time.Duration(i+1) * time.Minute)
		step.run(at)
		if a.UpdatedAt() != at {
			t.Fatalf("%s: expected updatedAt %v, got %v", step.name, at, a.UpdatedAt())
		}
	}
}

func TestAccount_SnapshotRoundTrip(t *testing.T) {
	a := newTestAccount(t, RoleSupervisor)
	_ = a.Login(time.Now())
	_ = a.SetRefreshToken("tok", time.Now().Add(time.Hour), time.Now())

	b := Rehydrate(a.Snapshot())

	if b.ID() != a.ID() || b.Username() != a.Username() || b.Role() != a.Role() {
		t.Fatalf("identity fields lost in round trip")
	}
	if b.RefreshToken() != a.RefreshToken() {
		t.Fatalf("refresh token lost in round trip")
	}
	if b.MustChangePassword() != a.MustChangePassword() {
		t.Fatalf("flag lost in round trip")
	}
}
