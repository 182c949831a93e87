// Package main is the entry point for the invoicer API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoicer/internal/config"
	"invoicer/internal/domain/auth"
	"invoicer/internal/domain/company"
	"invoicer/internal/domain/invoice"
	"invoicer/internal/domain/numbering"
	v1 "invoicer/internal/infrastructure/http/v1"
	"invoicer/internal/infrastructure/numerator"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/internal/infrastructure/storage/postgres/company_repo"
	"invoicer/internal/infrastructure/storage/postgres/invoice_repo"
	"invoicer/internal/render"
	"invoicer/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting invoicer server", "version", version, "env", cfg.AppEnv)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	companyRepo := company_repo.NewCompanyRepo(txManager)
	departmentRepo := company_repo.NewDepartmentRepo(txManager)
	invoiceRepo := invoice_repo.NewInvoiceRepo(txManager)

	// --- Services ---
	hasher := auth.NewBcryptHasher(0)
	companyService := company.NewService(companyRepo, departmentRepo, txManager, hasher)

	jwtConfig := auth.DefaultJWTConfig(cfg.SessionSecret)
	jwtConfig.TokenTTL = cfg.SessionTTL
	authService := auth.NewService(
		auth.AdminCredentials{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash},
		companyRepo,
		hasher,
		auth.NewJWTService(jwtConfig),
	)

	// Counters join the invoice insert's transaction.
	counter := numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})
	allocator := numbering.NewAllocator(cfg.NumberingStrategy, counter, invoiceRepo)

	invoiceService := invoice.NewService(invoice.Deps{
		Repo:      invoiceRepo,
		Companies: companyService,
		Allocator: allocator,
		Renderer:  render.NewRenderer("invoicer " + version),
		Events:    postgres.NewOutboxPublisher(txManager),
		TxManager: txManager,
	}, invoice.Config{
		Tax:     invoice.NewTaxEngine(cfg.GSTCombinedRate),
		Policy:  cfg.LineItemPolicy,
		DueDays: cfg.InvoiceDueDays,
	})
	log.Infow("invoice service initialized",
		"gst_rate", cfg.GSTCombinedRate.String(),
		"line_item_policy", cfg.LineItemPolicy,
		"numbering", cfg.NumberingStrategy,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		AuthService:    authService,
		CompanyService: companyService,
		InvoiceService: invoiceService,
		Idempotency:    postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		DB:             pool,
		SecureCookie:   !cfg.IsDevelopment(),
		Version:        version,
		Development:    cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
