// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Role is the coarse role carried by a session.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Identity is the resolved session principal.
// CompanyID is empty for the admin.
type Identity struct {
	Subject   string
	Role      Role
	CompanyID string
	Email     string
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type identityKey struct{}

// WithIdentity adds Identity to context.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// GetIdentity returns Identity from context, or nil for anonymous requests.
func GetIdentity(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// GetSubject returns the session subject or empty string.
func GetSubject(ctx context.Context) string {
	if i := GetIdentity(ctx); i != nil {
		return i.Subject
	}
	return ""
}
