// Package auth provides login, session tokens and the authorization guard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "invoicer/internal/core/context"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:   secret,
		Issuer:   "invoicer",
		TokenTTL: 12 * time.Hour,
	}
}

// Claims represents JWT claims. Subject carries the session subject.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	CompanyID string `json:"cid,omitempty"`
	Email     string `json:"email,omitempty"`
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.config.TokenTTL
}

// GenerateToken signs a session token for ident.
func (s *JWTService) GenerateToken(ident *appctx.Identity) (string, time.Time, error) {
	if ident == nil || ident.Subject == "" {
		return "", time.Time{}, errors.New("identity without subject")
	}

	now := s.now()
	expiresAt := now.Add(s.config.TokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   ident.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      string(ident.Role),
		CompanyID: ident.CompanyID,
		Email:     ident.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a session token and returns its identity.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			return []byte(s.config.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	role := appctx.Role(claims.Role)
	if role != appctx.RoleAdmin && role != appctx.RoleUser {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return &appctx.Identity{
		Subject:   claims.Subject,
		Role:      role,
		CompanyID: claims.CompanyID,
		Email:     claims.Email,
	}, nil
}
