package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret is returned when tokens are used without a signing secret.
	ErrNoSecret = errors.New("jwt secret not configured")

	// ErrInvalidToken is returned for well-signed tokens with unusable claims.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies the operator on requests to the message store.
type Claims struct {
	AdminID string `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Enabled reports whether tokens can be minted.
func (c *JWTConfig) Enabled() bool {
	return c != nil && len(c.Secret) > 0
}

// GenerateToken creates a short-lived token for the given operator identity.
func GenerateToken(cfg *JWTConfig, adminID, role string) (string, error) {
	if !cfg.Enabled() {
		return "", ErrNoSecret
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	now := time.Now()
	claims := Claims{
		AdminID: adminID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// ValidateToken verifies a token minted by GenerateToken. The signature must
// be HS256, the token must carry an expiry, and a configured issuer or
// audience must match.
func ValidateToken(cfg *JWTConfig, tokenString string) (*Claims, error) {
	if !cfg.Enabled() {
		return nil, ErrNoSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &Claims{}
	keyFn := func(*jwt.Token) (any, error) { return cfg.Secret, nil }
	if _, err := jwt.ParseWithClaims(tokenString, claims, keyFn, opts...); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.AdminID == "" || claims.Subject != claims.AdminID {
		return nil, fmt.Errorf("%w: subject does not name the admin", ErrInvalidToken)
	}
	return claims, nil
}
