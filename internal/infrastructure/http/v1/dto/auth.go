package dto

import (
	"time"

	"invoicer/internal/domain/auth"
)

// LoginRequest is accepted as JSON or as a login form.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SessionResponse describes an issued session. The token is also set as
// a cookie.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
	CompanyID string    `json:"companyId,omitempty"`
}

// FromSession creates response from a domain session.
func FromSession(s *auth.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Role:      string(s.Identity.Role),
		CompanyID: s.Identity.CompanyID,
	}
}

// MeResponse describes the caller.
type MeResponse struct {
	Subject   string `json:"subject"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
}
