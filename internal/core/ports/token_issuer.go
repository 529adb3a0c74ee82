package ports

import (
	"time"

	"github.com/retailops/account-system/internal/core/domain"
)

// TokenClaims is the claim set carried by an access token. Exactly one role
// claim per token.
type TokenClaims struct {
	AccountID string
	Username  string
	Email     string
	Role      domain.Role
}

// TokenIssuer mints signed access tokens and opaque refresh tokens.
type TokenIssuer interface {
	// Sign produces a verifiable, tamper-evident access token carrying the
	// claims and expiring after ttl.
	Sign(claims TokenClaims, ttl time.Duration) (string, error)
	// RandomToken returns a cryptographically random value of byteLength
	// random bytes in a text-safe encoding.
	RandomToken(byteLength int) (string, error)
}
