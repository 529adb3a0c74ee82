package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/retailops/account-system/internal/core/domain"
	"github.com/retailops/account-system/internal/core/ports"
	"github.com/retailops/account-system/internal/infrastructure/token"
)

const testSecret = "test-signing-key"

// stubAccountRepo keeps snapshots, so mutations only become visible after
// Save, like a real store.
type stubAccountRepo struct {
	records map[string]domain.AccountRecord
	saveErr error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{records: make(map[string]domain.AccountRecord)}
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, rec := range r.records {
		if rec.Username == username {
			return domain.Rehydrate(rec), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	rec, ok := r.records[id]
	if !ok || rec.IsDeleted {
		return nil, domain.ErrAccountNotFound
	}
	return domain.Rehydrate(rec), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, rec := range r.records {
		if rec.Email == email && !rec.IsDeleted {
			return domain.Rehydrate(rec), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByIDIncludingDeleted(_ context.Context, id string) (*domain.Account, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return domain.Rehydrate(rec), nil
}

func (r *stubAccountRepo) Save(_ context.Context, account *domain.Account) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[account.ID()] = account.Snapshot()
	return nil
}

type stubGrantRepo struct {
	grants map[string]domain.Role
	calls  int
}

func newStubGrantRepo() *stubGrantRepo {
	return &stubGrantRepo{grants: make(map[string]domain.Role)}
}

func (g *stubGrantRepo) Replace(_ context.Context, accountID string, role domain.Role) error {
	g.grants[accountID] = role
	g.calls++
	return nil
}

type stubVerifier struct {
	secrets     map[string]string
	failures    map[string]int
	maxAttempts int
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{
		secrets:     make(map[string]string),
		failures:    make(map[string]int),
		maxAttempts: 5,
	}
}

func (v *stubVerifier) VerifySecret(_ context.Context, account *domain.Account, secret string) (bool, error) {
	return v.secrets[account.ID()] == secret, nil
}

func (v *stubVerifier) IsLockedOut(_ context.Context, account *domain.Account) (bool, error) {
	return v.failures[account.ID()] >= v.maxAttempts, nil
}

func (v *stubVerifier) RecordFailedAttempt(_ context.Context, account *domain.Account) error {
	v.failures[account.ID()]++
	return nil
}

func (v *stubVerifier) ChangeSecret(_ context.Context, account *domain.Account, current, newSecret string) error {
	if v.secrets[account.ID()] != current {
		return fmt.Errorf("%w: current password does not match", domain.ErrPasswordChange)
	}
	v.secrets[account.ID()] = newSecret
	return nil
}

func (v *stubVerifier) SetInitialSecret(_ context.Context, account *domain.Account, secret string) error {
	v.secrets[account.ID()] = secret
	return nil
}

type captureRecorder struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (c *captureRecorder) Record(event domain.AuthEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

type fixture struct {
	svc      *AuthService
	accounts *stubAccountRepo
	grants   *stubGrantRepo
	verifier *stubVerifier
	audit    *captureRecorder
}

func newFixture() *fixture {
	accounts := newStubAccountRepo()
	grants := newStubGrantRepo()
	verifier := newStubVerifier()
	audit := &captureRecorder{}
	issuer := token.NewJWTIssuer(testSecret, "account-system")
	svc := NewAuthService(accounts, grants, verifier, issuer, audit, time.Hour, zerolog.Nop())
	return &fixture{svc: svc, accounts: accounts, grants: grants, verifier: verifier, audit: audit}
}

func (f *fixture) register(t *testing.T, username, email string, role domain.Role) *ports.RegisterResult {
	t.Helper()
	result, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: username,
		FullName: "Test User",
		Email:    email,
		Phone:    "01000000000",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}

func TestRegister_Success(t *testing.T) {
	f := newFixture()

	result := f.register(t, "alice", "alice@x.com", domain.RoleCashier)

	if result.AccountID == "" {
		t.Fatalf("expected a generated account id")
	}
	if !result.MustChangePassword {
		t.Fatalf("new account must require a password change")
	}
	if f.verifier.secrets[result.AccountID] != initialSecret {
		t.Fatalf("initial secret not provisioned")
	}
	if f.grants.grants[result.AccountID] != domain.RoleCashier {
		t.Fatalf("role grant not written")
	}

	rec := f.accounts.records[result.AccountID]
	if rec.RefreshToken != "" {
		t.Fatalf("registration must not issue a refresh token")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture()
	f.register(t, "alice", "alice@x.com", domain.RoleCashier)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice", FullName: "Other", Email: "other@x.com", Phone: "0100", Role: domain.RoleCashier,
	})
	if !errors.Is(err, domain.ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
	if len(f.accounts.records) != 1 {
		t.Fatalf("conflicting registration must not construct an account")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	f.register(t, "alice", "alice@x.com", domain.RoleCashier)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob", FullName: "Bob B", Email: "alice@x.com", Phone: "0100", Role: domain.RoleCashier,
	})
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegister_SuperAdminRejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "mallory", FullName: "Mallory M", Email: "mallory@x.com", Phone: "0100", Role: domain.RoleSuperAdmin,
	})
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if len(f.accounts.records) != 0 {
		t.Fatalf("rejected registration must not construct an account")
	}
	if f.grants.calls != 0 {
		t.Fatalf("rejected registration must not write role grants")
	}
}

func TestRegister_InvalidData(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice", FullName: "", Email: "alice@x.com", Phone: "0100", Role: domain.RoleCashier,
	})
	if !errors.Is(err, domain.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "carol", "carol@x.com", domain.RoleManager)

	result, err := f.svc.Login(context.Background(), "carol", initialSecret)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair")
	}
	if result.LastLoginAt.IsZero() {
		t.Fatalf("expected last login timestamp")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(result.Tokens.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims["sub"] != reg.AccountID {
		t.Fatalf("expected sub %s, got %v", reg.AccountID, claims["sub"])
	}
	if claims["role"] != domain.RoleManager.String() {
		t.Fatalf("expected role claim %s, got %v", domain.RoleManager, claims["role"])
	}

	rec := f.accounts.records[reg.AccountID]
	if rec.RefreshToken != result.Tokens.RefreshToken {
		t.Fatalf("refresh token not persisted")
	}
	if rec.RefreshTokenExpiresAt == nil {
		t.Fatalf("refresh token expiry not persisted")
	}
	if got := time.Until(*rec.RefreshTokenExpiresAt); got < 6*24*time.Hour || got > 8*24*time.Hour {
		t.Fatalf("expected ~7 day refresh expiry, got %v", got)
	}
}

func TestLogin_UnknownUsername(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Login(context.Background(), "ghost", "pass"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLogin_WrongSecret(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "dave", "dave@x.com", domain.RoleCashier)

	_, err := f.svc.Login(context.Background(), "dave", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if f.verifier.failures[reg.AccountID] != 1 {
		t.Fatalf("failed attempt not recorded")
	}

	rec := f.accounts.records[reg.AccountID]
	if rec.LastLoginAt != nil {
		t.Fatalf("failed login must not touch last login")
	}
}

func TestLogin_LockedOut(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "eve", "eve@x.com", domain.RoleCashier)
	f.verifier.failures[reg.AccountID] = f.verifier.maxAttempts

	// Even the correct secret is rejected while locked out.
	if _, err := f.svc.Login(context.Background(), "eve", initialSecret); !errors.Is(err, domain.ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut, got %v", err)
	}
}

func TestLogin_DeletedAccount(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "frank", "frank@x.com", domain.RoleCashier)
	if err := f.svc.DeleteUser(context.Background(), reg.AccountID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	_, err := f.svc.Login(context.Background(), "frank", initialSecret)
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}

	rec := f.accounts.records[reg.AccountID]
	if rec.LastLoginAt != nil {
		t.Fatalf("login on deleted account must not set last login")
	}
}

func TestRefreshToken_Rotation(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "gina", "gina@x.com", domain.RoleSupervisor)

	login, err := f.svc.Login(context.Background(), "gina", initialSecret)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	t1 := login.Tokens.RefreshToken

	pair, err := f.svc.RefreshToken(context.Background(), reg.AccountID)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	t2 := pair.RefreshToken
	if t2 == t1 {
		t.Fatalf("rotation must mint a new refresh token")
	}

	// T1 is gone from the store: only T2 is outstanding.
	rec := f.accounts.records[reg.AccountID]
	if rec.RefreshToken != t2 {
		t.Fatalf("store still holds %q, want %q", rec.RefreshToken, t2)
	}
}

func TestRefreshToken_NoneOutstanding(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "hank", "hank@x.com", domain.RoleCashier)

	if _, err := f.svc.RefreshToken(context.Background(), reg.AccountID); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "iris", "iris@x.com", domain.RoleCashier)

	rec := f.accounts.records[reg.AccountID]
	past := time.Now().Add(-time.Hour).UTC()
	rec.RefreshToken = "stale"
	rec.RefreshTokenExpiresAt = &past
	f.accounts.records[reg.AccountID] = rec

	if _, err := f.svc.RefreshToken(context.Background(), reg.AccountID); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for expired token, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "jane", "jane@x.com", domain.RoleCashier)
	if _, err := f.svc.Login(context.Background(), "jane", initialSecret); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := f.svc.Logout(context.Background(), reg.AccountID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	rec := f.accounts.records[reg.AccountID]
	if rec.RefreshToken != "" || rec.RefreshTokenExpiresAt != nil {
		t.Fatalf("logout must revoke the refresh token")
	}

	// Unknown account: best-effort, still succeeds.
	if err := f.svc.Logout(context.Background(), "no-such-id"); err != nil {
		t.Fatalf("Logout for unknown id should succeed, got %v", err)
	}
}

func TestChangeUserRole(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "kate", "kate@x.com", domain.RoleCashier)

	if err := f.svc.ChangeUserRole(context.Background(), reg.AccountID, domain.RoleManager); err != nil {
		t.Fatalf("ChangeUserRole failed: %v", err)
	}
	if rec := f.accounts.records[reg.AccountID]; rec.Role != domain.RoleManager {
		t.Fatalf("role not persisted, got %s", rec.Role)
	}
	if f.grants.grants[reg.AccountID] != domain.RoleManager {
		t.Fatalf("role grants not replaced")
	}

	grantCalls := f.grants.calls
	if err := f.svc.ChangeUserRole(context.Background(), reg.AccountID, domain.Role("janitor")); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if f.grants.calls != grantCalls {
		t.Fatalf("failed role change must not touch grants")
	}
}

func TestChangeUserRole_SuperAdminAlwaysRejected(t *testing.T) {
	f := newFixture()
	active := f.register(t, "liam", "liam@x.com", domain.RoleAdmin)
	deleted := f.register(t, "mona", "mona@x.com", domain.RoleCashier)
	if err := f.svc.DeleteUser(context.Background(), deleted.AccountID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	for _, id := range []string{active.AccountID, deleted.AccountID} {
		if err := f.svc.ChangeUserRole(context.Background(), id, domain.RoleSuperAdmin); !errors.Is(err, domain.ErrInvalidOperation) {
			t.Fatalf("account %s: expected ErrInvalidOperation, got %v", id, err)
		}
	}
}

func TestChangeUserRole_DeletedAccount(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "nora", "nora@x.com", domain.RoleCashier)
	if err := f.svc.DeleteUser(context.Background(), reg.AccountID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if err := f.svc.ChangeUserRole(context.Background(), reg.AccountID, domain.RoleManager); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "olga", "olga@x.com", domain.RoleCashier)

	if err := f.svc.ChangePassword(context.Background(), reg.AccountID, "wrong", "NewPass1x"); !errors.Is(err, domain.ErrPasswordChange) {
		t.Fatalf("expected ErrPasswordChange, got %v", err)
	}

	if err := f.svc.ChangePassword(context.Background(), reg.AccountID, initialSecret, "NewPass1x"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if rec := f.accounts.records[reg.AccountID]; rec.MustChangePassword {
		t.Fatalf("flag should clear after password change")
	}
	if f.verifier.secrets[reg.AccountID] != "NewPass1x" {
		t.Fatalf("secret not rotated")
	}
}

func TestAvailabilityChecks(t *testing.T) {
	f := newFixture()
	f.register(t, "pete", "pete@x.com", domain.RoleCashier)

	taken, err := f.svc.IsUsernameTaken(context.Background(), "pete")
	if err != nil || !taken {
		t.Fatalf("expected username taken, got %v %v", taken, err)
	}
	taken, err = f.svc.IsUsernameTaken(context.Background(), "free")
	if err != nil || taken {
		t.Fatalf("expected username free, got %v %v", taken, err)
	}
	taken, err = f.svc.IsEmailTaken(context.Background(), "pete@x.com")
	if err != nil || !taken {
		t.Fatalf("expected email taken, got %v %v", taken, err)
	}
}

// TestAccountLifecycleScenario walks the full register → login → refresh →
// delete → restore → login journey.
func TestAccountLifecycleScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, ports.RegisterInput{
		Username: "alice",
		FullName: "Alice A",
		Email:    "alice@x.com",
		Phone:    "01000000000",
		Role:     domain.RoleCashier,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !reg.MustChangePassword {
		t.Fatalf("fresh account must require a password change")
	}
	if rec := f.accounts.records[reg.AccountID]; rec.RefreshToken != "" {
		t.Fatalf("fresh account must have no refresh token")
	}

	login, err := f.svc.Login(ctx, "alice", initialSecret)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Tokens.AccessToken == "" || login.Tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair")
	}
	if rec := f.accounts.records[reg.AccountID]; rec.LastLoginAt == nil {
		t.Fatalf("login must set last login")
	}

	pair, err := f.svc.RefreshToken(ctx, reg.AccountID)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if pair.RefreshToken == login.Tokens.RefreshToken {
		t.Fatalf("refresh must rotate the token issued at login")
	}

	if err := f.svc.DeleteUser(ctx, reg.AccountID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := f.svc.Login(ctx, "alice", initialSecret); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("login on deleted account: expected ErrInvalidOperation, got %v", err)
	}

	if err := f.svc.RestoreUser(ctx, reg.AccountID); err != nil {
		t.Fatalf("RestoreUser failed: %v", err)
	}
	if rec := f.accounts.records[reg.AccountID]; rec.RefreshToken != "" {
		t.Fatalf("restore must not bring back a refresh token")
	}

	if _, err := f.svc.Login(ctx, "alice", initialSecret); err != nil {
		t.Fatalf("login after restore failed: %v", err)
	}
}
