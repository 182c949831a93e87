package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/domain/company"
	"invoicer/pkg/logger"
)

// AdminSubject is the session subject of the configured administrator.
const AdminSubject = "admin"

// CompanyAccounts looks up company logins.
type CompanyAccounts interface {
	GetByLoginEmail(ctx context.Context, email string) (*company.Company, error)
}

// PasswordVerifier checks a password against a stored hash.
type PasswordVerifier interface {
	Compare(hash, password string) error
}

// AdminCredentials come from configuration; there is no admin table.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// Session is an issued login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *appctx.Identity
}

// Service authenticates the admin and company users.
type Service struct {
	admin     AdminCredentials
	companies CompanyAccounts
	passwords PasswordVerifier
	jwt       *JWTService
	// dummyHash is compared against when the login does not exist so both
	// paths cost one bcrypt comparison.
	dummyHash string
}

// NewService creates a new auth service.
func NewService(admin AdminCredentials, companies CompanyAccounts, passwords PasswordVerifier, jwtService *JWTService) *Service {
	return &Service{
		admin:     admin,
		companies: companies,
		passwords: passwords,
		jwt:       jwtService,
		dummyHash: "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3Ky4TH0XvZhOEhqLrxMXpsK",
	}
}

// Login checks credentials and issues a session token. Unknown users and
// wrong passwords fail with the same AccessDenied error.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.NewValidation("username and password are required")
	}

	ident, err := s.verify(ctx, username, password)
	if err != nil {
		logger.Warn(ctx, "login rejected", "username", username)
		return nil, apperror.NewAccessDenied()
	}

	token, expiresAt, err := s.jwt.GenerateToken(ident)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issue session: %w", err))
	}

	logger.Info(ctx, "login", "subject", ident.Subject, "role", string(ident.Role))
	return &Session{Token: token, ExpiresAt: expiresAt, Identity: ident}, nil
}

func (s *Service) verify(ctx context.Context, username, password string) (*appctx.Identity, error) {
	if s.admin.Username != "" && subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1 {
		if err := s.passwords.Compare(s.admin.PasswordHash, password); err != nil {
			return nil, err
		}
		return &appctx.Identity{Subject: AdminSubject, Role: appctx.RoleAdmin}, nil
	}

	c, err := s.companies.GetByLoginEmail(ctx, strings.ToLower(username))
	if err != nil {
		_ = s.passwords.Compare(s.dummyHash, password)
		return nil, err
	}
	if err := s.passwords.Compare(c.PasswordHash, password); err != nil {
		return nil, err
	}
	return &appctx.Identity{
		Subject:   c.LoginEmail,
		Role:      appctx.RoleUser,
		CompanyID: c.ID.String(),
		Email:     c.LoginEmail,
	}, nil
}

// Authenticate resolves a session token. Any failure is AccessDenied.
func (s *Service) Authenticate(token string) (*appctx.Identity, error) {
	ident, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewAccessDenied().WithCause(err)
	}
	return ident, nil
}

// TokenTTL is the lifetime of issued sessions.
func (s *Service) TokenTTL() time.Duration {
	return s.jwt.TTL()
}
