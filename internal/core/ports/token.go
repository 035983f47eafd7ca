package ports

import (
	"context"
	"time"

	"github.com/userhub/accounts-service/internal/core/domain"
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues, verifies, and revokes bearer tokens.
type TokenService interface {
	Issue(user *domain.User) (string, error)
	// Verify checks signature, expiry, and the revocation list.
	Verify(ctx context.Context, token string) (*TokenClaims, error)
	// Revoke denylists the token for the remainder of its lifetime.
	Revoke(ctx context.Context, token string) error
}

// TokenDenylist records revoked token IDs until their natural expiry.
type TokenDenylist interface {
	Add(ctx context.Context, tokenID string, ttl time.Duration) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}
