package ports

import (
	"context"

	"github.com/retailops/account-system/internal/core/domain"
)

// CredentialVerifier checks submitted secrets against stored credentials and
// tracks failed-attempt lockout. Secret storage and hashing live behind this
// interface; the auth service never sees a hash.
type CredentialVerifier interface {
	// VerifySecret reports whether the submitted secret matches the stored
	// credential for the account.
	VerifySecret(ctx context.Context, account *domain.Account, secret string) (bool, error)
	// IsLockedOut reports whether the account has exceeded the failed
	// attempt threshold within the lockout window.
	IsLockedOut(ctx context.Context, account *domain.Account) (bool, error)
	// RecordFailedAttempt counts a failed verification towards lockout.
	RecordFailedAttempt(ctx context.Context, account *domain.Account) error
	// ChangeSecret rotates the stored credential. The current secret must
	// match and the new secret must satisfy the credential policy; policy
	// violations are returned wrapped in domain.ErrPasswordChange.
	ChangeSecret(ctx context.Context, account *domain.Account, current, newSecret string) error
	// SetInitialSecret provisions the credential for a newly registered
	// account.
	SetInitialSecret(ctx context.Context, account *domain.Account, secret string) error
}
