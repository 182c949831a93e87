// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "invoicer/internal/core/context"
	"invoicer/internal/infrastructure/http/v1/handlers"
	"invoicer/internal/infrastructure/http/v1/middleware"
	"invoicer/pkg/logger"
)

// AuthService is both the login endpoint's backend and the session
// resolver; auth.Service implements it.
type AuthService interface {
	handlers.AuthService
	middleware.Authenticator
}

// CompanyService is implemented by company.Service.
type CompanyService interface {
	handlers.CompanyService
	handlers.DepartmentService
}

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger *logger.Logger

	AuthService    AuthService
	CompanyService CompanyService
	InvoiceService handlers.InvoiceService

	// Idempotency guards invoice creation when set.
	Idempotency middleware.IdempotencyStore

	// DB backs the readiness probe.
	DB handlers.Pinger

	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	Version      string
	Development  bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Session(cfg.AuthService))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService, cfg.SecureCookie)
	companyHandler := handlers.NewCompanyHandler(base, cfg.CompanyService)
	departmentHandler := handlers.NewDepartmentHandler(base, cfg.CompanyService)
	invoiceHandler := handlers.NewInvoiceHandler(base, cfg.InvoiceService)

	api := router.Group("/api/v1")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/register", companyHandler.Register)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/me", middleware.Require(), authHandler.Me)
	}

	admin := api.Group("/admin", middleware.Require(appctx.RoleAdmin))
	{
		admin.GET("/companies", companyHandler.List)
		admin.GET("/companies/:id", companyHandler.Get)
		admin.DELETE("/companies/:id", companyHandler.Delete)
	}

	user := api.Group("", middleware.Require(appctx.RoleUser))
	{
		user.GET("/profile", companyHandler.Profile)
		user.PUT("/profile", companyHandler.UpdateProfile)
		user.GET("/profile/logo", companyHandler.Logo)
		user.PUT("/profile/logo", companyHandler.SetLogo)

		RegisterResourceRoutes(user.Group("/departments"), departmentHandler)

		var onCreate []gin.HandlerFunc
		if cfg.Idempotency != nil {
			onCreate = append(onCreate, middleware.Idempotency(cfg.Idempotency))
		}
		invoices := user.Group("/invoices")
		invoices.GET("/next-number", invoiceHandler.NextNumber)
		invoices.GET("/:id/pdf", invoiceHandler.PDF)
		RegisterResourceRoutes(invoices, invoiceHandler, onCreate...)
	}

	return router
}
