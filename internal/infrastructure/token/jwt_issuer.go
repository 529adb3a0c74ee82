package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/retailops/account-system/internal/core/ports"
)

// JWTIssuer mints HS256-signed access tokens and opaque random refresh
// tokens. It implements ports.TokenIssuer.
type JWTIssuer struct {
	secret []byte
	issuer string
}

func NewJWTIssuer(secret, issuer string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), issuer: issuer}
}

// Sign produces a signed access token carrying the account identity and a
// single role claim, expiring after ttl.
func (j *JWTIssuer) Sign(claims ports.TokenClaims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	mc := jwt.MapClaims{
		"iss":      j.issuer,
		"sub":      claims.AccountID,
		"username": claims.Username,
		"email":    claims.Email,
		"role":     claims.Role.String(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := t.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// RandomToken returns byteLength cryptographically random bytes encoded as
// unpadded base64url.
func (j *JWTIssuer) RandomToken(byteLength int) (string, error) {
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
