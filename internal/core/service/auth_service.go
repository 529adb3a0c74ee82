package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/retailops/account-system/internal/core/domain"
	"github.com/retailops/account-system/internal/core/ports"
)

const (
	// refreshTokenTTL is how long a refresh token stays exchangeable.
	refreshTokenTTL = 7 * 24 * time.Hour
	// refreshTokenBytes is the entropy of an opaque refresh token.
	refreshTokenBytes = 32
	// initialSecret is the fixed system-generated password assigned at
	// registration. mustChangePassword stays set until the owner rotates it.
	initialSecret = "Pos@ChangeMe1"

	defaultAccessTokenTTL = 2 * time.Hour
)

// AuthService implements ports.AuthService. Every operation is a single
// request-scoped unit of work: load, mutate in memory, persist once. There
// is no locking between load and save; concurrent refreshes on the same
// account can both read the pre-rotation state and the later Save wins.
type AuthService struct {
	accounts  ports.AccountRepository
	grants    ports.RoleGrantRepository
	creds     ports.CredentialVerifier
	tokens    ports.TokenIssuer
	audit     ports.AuditRecorder
	accessTTL time.Duration
	log       zerolog.Logger
}

// NewAuthService wires the auth orchestration. audit may be nil, in which
// case no audit trail is written.
func NewAuthService(
	accounts ports.AccountRepository,
	grants ports.RoleGrantRepository,
	creds ports.CredentialVerifier,
	tokens ports.TokenIssuer,
	audit ports.AuditRecorder,
	accessTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTokenTTL
	}
	return &AuthService{
		accounts:  accounts,
		grants:    grants,
		creds:     creds,
		tokens:    tokens,
		audit:     audit,
		accessTTL: accessTTL,
		log:       log,
	}
}

// Login verifies the secret and, on success, records the login on the
// account, mints a fresh token pair, and persists exactly once. The
// credential check always happens before any state mutation.
func (s *AuthService) Login(ctx context.Context, username, secret string) (*ports.LoginResult, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	locked, err := s.creds.IsLockedOut(ctx, account)
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("lockout check failed")
		return nil, fmt.Errorf("lockout check: %w", err)
	}
	if locked {
		s.record(account, domain.AuthLockedOut, "")
		return nil, domain.ErrLockedOut
	}

	ok, err := s.creds.VerifySecret(ctx, account, secret)
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("secret verification failed")
		return nil, fmt.Errorf("verify secret: %w", err)
	}
	if !ok {
		if recErr := s.creds.RecordFailedAttempt(ctx, account); recErr != nil {
			s.log.Warn().Err(recErr).Str("username", username).Msg("failed to record failed attempt")
		}
		s.record(account, domain.AuthLoginFailed, "secret mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := account.Login(now); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(account, now)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID()).Msg("failed to persist login")
		return nil, fmt.Errorf("save account: %w", err)
	}

	s.record(account, domain.AuthLoginSucceeded, "")
	s.log.Info().Str("account_id", account.ID()).Str("username", username).Msg("login succeeded")

	return &ports.LoginResult{
		AccountID:          account.ID(),
		Username:           account.Username(),
		Role:               account.Role(),
		MustChangePassword: account.MustChangePassword(),
		LastLoginAt:        now,
		Tokens:             *pair,
	}, nil
}

// Register provisions a new account with the fixed initial secret. It does
// not authenticate: no tokens are issued. Only assignable roles are
// accepted; the super-admin tier cannot be self-provisioned.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.RegisterResult, error) {
	if !input.Role.Assignable() {
		if input.Role.Valid() {
			return nil, fmt.Errorf("%w: role %q cannot be assigned", domain.ErrInvalidOperation, input.Role)
		}
		return nil, fmt.Errorf("%w: role %q is not defined", domain.ErrInvalidData, input.Role)
	}

	taken, err := s.IsUsernameTaken(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUsernameExists
	}

	taken, err = s.IsEmailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailExists
	}

	now := time.Now().UTC()
	account, err := domain.NewAccount(uuid.NewString(), input.Username, input.FullName, input.Email, input.Phone, input.Role, now)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("username", input.Username).Msg("failed to persist new account")
		return nil, fmt.Errorf("save account: %w", err)
	}
	if err := s.creds.SetInitialSecret(ctx, account, initialSecret); err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID()).Msg("failed to provision initial secret")
		return nil, fmt.Errorf("provision secret: %w", err)
	}
	if err := s.grants.Replace(ctx, account.ID(), account.Role()); err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID()).Msg("failed to write role grant")
		return nil, fmt.Errorf("replace role grants: %w", err)
	}

	s.record(account, domain.AuthAccountRegistered, string(account.Role()))
	s.log.Info().Str("account_id", account.ID()).Str("username", input.Username).Str("role", input.Role.String()).Msg("account registered")

	return &ports.RegisterResult{
		AccountID:          account.ID(),
		Username:           account.Username(),
		Role:               account.Role(),
		MustChangePassword: account.MustChangePassword(),
	}, nil
}

// RefreshToken rotates the account's refresh token: the outstanding token is
// revoked before a new pair is minted, so each refresh token is single-use.
// Expiry is checked lazily here; an expired stored token counts as absent.
func (s *AuthService) RefreshToken(ctx context.Context, accountID string) (*ports.TokenPair, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !account.HasValidRefreshToken(now) {
		return nil, domain.ErrInvalidRefreshToken
	}

	account.RevokeRefreshToken(now)
	pair, err := s.issueTokens(account, now)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist token rotation")
		return nil, fmt.Errorf("save account: %w", err)
	}

	s.record(account, domain.AuthTokenRefreshed, "")
	return pair, nil
}

// Logout revokes the account's refresh token. Best-effort: an unknown
// account id is not an error, the caller's session ends either way.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return err
	}

	account.RevokeRefreshToken(time.Now().UTC())
	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist logout")
		return fmt.Errorf("save account: %w", err)
	}

	s.record(account, domain.AuthLoggedOut, "")
	return nil
}

// DeleteUser soft-deletes the account and revokes its refresh token.
func (s *AuthService) DeleteUser(ctx context.Context, accountID string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	account.MarkDeleted(time.Now().UTC())
	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist soft delete")
		return fmt.Errorf("save account: %w", err)
	}

	s.record(account, domain.AuthAccountDeleted, "")
	s.log.Info().Str("account_id", accountID).Msg("account soft-deleted")
	return nil
}

// RestoreUser reverses a soft delete. The lookup includes deleted records.
func (s *AuthService) RestoreUser(ctx context.Context, accountID string) error {
	account, err := s.accounts.FindByIDIncludingDeleted(ctx, accountID)
	if err != nil {
		return err
	}

	account.Restore(time.Now().UTC())
	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist restore")
		return fmt.Errorf("save account: %w", err)
	}

	s.record(account, domain.AuthAccountRestored, "")
	s.log.Info().Str("account_id", accountID).Msg("account restored")
	return nil
}

// ChangeUserRole replaces the account's role and rewrites its role-grant
// records so that exactly the new role remains.
func (s *AuthService) ChangeUserRole(ctx context.Context, accountID string, newRole domain.Role) error {
	// Lookup includes deleted records so the entity guard decides: a role
	// change on a deleted account is an invalid operation, not a missing
	// account.
	account, err := s.accounts.FindByIDIncludingDeleted(ctx, accountID)
	if err != nil {
		return err
	}

	if err := account.ChangeRole(newRole, time.Now().UTC()); err != nil {
		return err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist role change")
		return fmt.Errorf("save account: %w", err)
	}
	if err := s.grants.Replace(ctx, accountID, newRole); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to replace role grants")
		return fmt.Errorf("replace role grants: %w", err)
	}

	s.record(account, domain.AuthRoleChanged, string(newRole))
	s.log.Info().Str("account_id", accountID).Str("role", newRole.String()).Msg("role changed")
	return nil
}

// ChangePassword rotates the account secret. The current secret must match;
// policy violations surface as domain.ErrPasswordChange with the verifier's
// reasons attached.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, current, newSecret string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.creds.ChangeSecret(ctx, account, current, newSecret); err != nil {
		return err
	}

	account.PasswordChanged(time.Now().UTC())
	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist password change")
		return fmt.Errorf("save account: %w", err)
	}

	s.record(account, domain.AuthPasswordChanged, "")
	return nil
}

// IsUsernameTaken reports whether any account, including a soft-deleted
// one, holds the username. A deleted account's username stays reserved.
func (s *AuthService) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsEmailTaken reports whether an active account holds the email.
func (s *AuthService) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// issueTokens mints an access token and a fresh random refresh token and
// stores the refresh token on the account with a 7-day expiry.
func (s *AuthService) issueTokens(account *domain.Account, now time.Time) (*ports.TokenPair, error) {
	access, err := s.tokens.Sign(ports.TokenClaims{
		AccountID: account.ID(),
		Username:  account.Username(),
		Email:     account.Email(),
		Role:      account.Role(),
	}, s.accessTTL)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID()).Msg("failed to sign access token")
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.tokens.RandomToken(refreshTokenBytes)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID()).Msg("failed to mint refresh token")
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	if err := account.SetRefreshToken(refresh, now.Add(refreshTokenTTL), now); err != nil {
		return nil, err
	}

	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) record(account *domain.Account, kind domain.AuthEventKind, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		AccountID: account.ID(),
		Username:  account.Username(),
		Kind:      kind,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
