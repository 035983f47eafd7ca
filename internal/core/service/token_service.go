package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/userhub/accounts-service/internal/core/domain"
	"github.com/userhub/accounts-service/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// TokenConfig carries the signing material for the token service. Secrets is
// keyed by version so that tokens signed with a previous key stay verifiable
// after a rotation; new tokens are always signed with CurrentVersion.
type TokenConfig struct {
	Secrets        map[int]string
	CurrentVersion int
	TTL            time.Duration
}

// TokenService issues and verifies HS256 JWTs and tracks revocations.
type TokenService struct {
	secrets  map[int][]byte
	version  int
	ttl      time.Duration
	denylist ports.TokenDenylist
}

func NewTokenService(cfg TokenConfig, denylist ports.TokenDenylist) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	secrets := make(map[int][]byte, len(cfg.Secrets))
	for ver, secret := range cfg.Secrets {
		secrets[ver] = []byte(secret)
	}
	return &TokenService{
		secrets:  secrets,
		version:  cfg.CurrentVersion,
		ttl:      ttl,
		denylist: denylist,
	}
}

// Issue signs a token bound to the user's id. The jti claim gives every
// token a unique identity so it can be revoked individually.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": user.ID,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"ver": s.version,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secrets[s.version])
}

// Verify checks the signature against the key version named in the token,
// validates expiry, and consults the revocation list.
func (s *TokenService) Verify(ctx context.Context, token string) (*ports.TokenClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.signingKey)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, fmt.Errorf("token missing jti claim")
	}

	revoked, err := s.denylist.Contains(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("denylist check: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("token missing exp claim")
	}

	return &ports.TokenClaims{
		UserID:    sub,
		TokenID:   jti,
		ExpiresAt: exp.Time,
	}, nil
}

// Revoke denylists the token's jti until the token would have expired.
// Already-expired tokens need no entry.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return fmt.Errorf("token missing jti claim")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("token missing exp claim")
	}

	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return nil
	}

	return s.denylist.Add(ctx, jti, ttl)
}

// signingKey resolves the HMAC secret for the key version the token names.
// Tokens without a ver claim are assumed to predate versioning and are
// verified with the current key.
func (s *TokenService) signingKey(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	version := s.version
	if mc, ok := t.Claims.(jwt.MapClaims); ok {
		if v, ok := mc["ver"].(float64); ok {
			version = int(v)
		}
	}

	secret, ok := s.secrets[version]
	if !ok {
		return nil, fmt.Errorf("unknown signing key version %d", version)
	}
	return secret, nil
}
