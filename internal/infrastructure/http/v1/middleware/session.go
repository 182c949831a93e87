package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "invoicer/internal/core/context"
	"invoicer/internal/domain/auth"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "invoicer_session"

// Authenticator resolves a session token into an identity.
type Authenticator interface {
	Authenticate(token string) (*appctx.Identity, error)
}

// Session resolves the caller's identity from the session cookie or a
// Bearer token. It never rejects: a missing or invalid token leaves the
// request anonymous and Require decides.
func Session(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token == "" {
			c.Next()
			return
		}

		ident, err := a.Authenticate(token)
		if err != nil {
			c.Set("session_error", err.Error())
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(appctx.WithIdentity(c.Request.Context(), ident))
		c.Set("subject", ident.Subject)
		c.Next()
	}
}

// Require admits the request only when auth.Authorize accepts the
// caller for one of roles. With no roles any valid session is enough.
func Require(roles ...appctx.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(appctx.GetIdentity(c.Request.Context()), roles...); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
