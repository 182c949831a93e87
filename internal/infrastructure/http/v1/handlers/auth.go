package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appctx "invoicer/internal/core/context"
	"invoicer/internal/domain/auth"
	"invoicer/internal/infrastructure/http/v1/dto"
	"invoicer/internal/infrastructure/http/v1/middleware"
)

// AuthService is implemented by auth.Service.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	TokenTTL() time.Duration
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service      AuthService
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie marks the
// session cookie Secure, which production deployments behind TLS want.
func NewAuthHandler(base *BaseHandler, service AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service, secureCookie: secureCookie}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.Bind(c, &req) {
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setCookie(c, sess.Token, int(h.service.TokenTTL().Seconds()))
	h.OK(c, dto.FromSession(sess))
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only
// drops the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ident := appctx.GetIdentity(c.Request.Context())
	h.OK(c, dto.MeResponse{
		Subject:   ident.Subject,
		Role:      string(ident.Role),
		CompanyID: ident.CompanyID,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.secureCookie, true)
}
