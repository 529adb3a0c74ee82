package credentials

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/retailops/account-system/internal/core/domain"
)

const minSecretLength = 8

// HashStore persists one secret hash per account.
type HashStore interface {
	HashByAccountID(ctx context.Context, accountID string) (string, error)
	StoreHash(ctx context.Context, accountID, hash string) error
}

// LockoutStore counts failed verification attempts within a rolling window.
type LockoutStore interface {
	Failures(ctx context.Context, accountID string) (int, error)
	RecordFailure(ctx context.Context, accountID string) error
	Clear(ctx context.Context, accountID string) error
}

// BcryptVerifier implements ports.CredentialVerifier with bcrypt hashes and
// a windowed failed-attempt counter.
type BcryptVerifier struct {
	hashes      HashStore
	lockout     LockoutStore
	maxAttempts int
	log         zerolog.Logger
}

func NewBcryptVerifier(hashes HashStore, lockout LockoutStore, maxAttempts int, log zerolog.Logger) *BcryptVerifier {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &BcryptVerifier{hashes: hashes, lockout: lockout, maxAttempts: maxAttempts, log: log}
}

// VerifySecret compares the submitted secret against the stored hash. A
// successful match clears the failed-attempt counter.
func (v *BcryptVerifier) VerifySecret(ctx context.Context, account *domain.Account, secret string) (bool, error) {
	hash, err := v.hashes.HashByAccountID(ctx, account.ID())
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return false, nil
	}

	if err := v.lockout.Clear(ctx, account.ID()); err != nil {
		v.log.Warn().Err(err).Str("account_id", account.ID()).Msg("failed to clear lockout counter")
	}
	return true, nil
}

// IsLockedOut reports whether the account reached the attempt threshold.
func (v *BcryptVerifier) IsLockedOut(ctx context.Context, account *domain.Account) (bool, error) {
	n, err := v.lockout.Failures(ctx, account.ID())
	if err != nil {
		return false, fmt.Errorf("lockout lookup: %w", err)
	}
	return n >= v.maxAttempts, nil
}

// RecordFailedAttempt counts a failed verification towards lockout.
func (v *BcryptVerifier) RecordFailedAttempt(ctx context.Context, account *domain.Account) error {
	return v.lockout.RecordFailure(ctx, account.ID())
}

// ChangeSecret rotates the stored credential. The current secret must match
// and the new one must satisfy the policy; every violated rule is reported
// in a single domain.ErrPasswordChange error.
func (v *BcryptVerifier) ChangeSecret(ctx context.Context, account *domain.Account, current, newSecret string) error {
	hash, err := v.hashes.HashByAccountID(ctx, account.ID())
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}

	var reasons []string
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		reasons = append(reasons, "current password does not match")
	}
	reasons = append(reasons, policyViolations(newSecret, current)...)
	if len(reasons) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrPasswordChange, strings.Join(reasons, "; "))
	}

	return v.store(ctx, account.ID(), newSecret)
}

// SetInitialSecret provisions the credential for a new account.
func (v *BcryptVerifier) SetInitialSecret(ctx context.Context, account *domain.Account, secret string) error {
	return v.store(ctx, account.ID(), secret)
}

func (v *BcryptVerifier) store(ctx context.Context, accountID, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	if err := v.hashes.StoreHash(ctx, accountID, string(hash)); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// policyViolations lists every rule the candidate secret breaks.
func policyViolations(candidate, current string) []string {
	var reasons []string
	if len(candidate) < minSecretLength {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters", minSecretLength))
	}
	if candidate == current {
		reasons = append(reasons, "new password must differ from the current one")
	}

	var hasLetter, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		reasons = append(reasons, "password must contain both letters and digits")
	}
	return reasons
}
