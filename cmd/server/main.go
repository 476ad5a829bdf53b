// Command server runs the merchant backend: catalog, cart, and order APIs
// plus the x402 payment-gated checkout.
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

	"go.uber.org/zap"

	"github.com/agentpay/merchant-backend/internal/checkout"
	"github.com/agentpay/merchant-backend/internal/config"
	"github.com/agentpay/merchant-backend/internal/httpapi"
	"github.com/agentpay/merchant-backend/internal/logger"
	"github.com/agentpay/merchant-backend/internal/pricing"
	"github.com/agentpay/merchant-backend/internal/store"
	"github.com/agentpay/merchant-backend/internal/trust"
	"github.com/agentpay/merchant-backend/internal/x402/facilitator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting merchant backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("facilitator", cfg.Payment.FacilitatorURL),
		zap.Bool("verify_only", cfg.Payment.VerifyOnly),
	)

	db, err := store.NewDatabase(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	products := store.NewProductRepo(db)
	carts := store.NewCartRepo(db)
	orders := store.NewOrderRepo(db)

	seeded, err := store.SeedProducts(context.Background(), products)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if seeded > 0 {
		log.Info("seeded sample catalog", zap.Int("products", seeded))
	}

	rules := pricing.NewRules(cfg.Payment.TaxRate, cfg.Payment.ShippingFee, cfg.Payment.DigitalCategories)
	limits := trust.Limits{
		Verified:  cfg.Payment.SpendLimitVerified,
		HighRep:   cfg.Payment.SpendLimitHighRep,
		Baseline:  cfg.Payment.SpendLimitBaseline,
		Threshold: cfg.Payment.HighRepThreshold,
	}

	builder, err := checkout.NewRequirementsBuilder(cfg.Payment.Networks, cfg.Payment.MaxTimeoutSeconds)
	if err != nil {
		return fmt.Errorf("invalid payment network configuration: %w", err)
	}

	facilitatorClient := facilitator.NewClient(cfg.Payment.FacilitatorURL)
	facilitatorClient.MaxRetries = 2

	checkoutService := checkout.NewService(db, carts, orders, rules, limits,
		builder, facilitatorClient, cfg.Payment.VerifyOnly, log)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		DB:       db,
		Products: products,
		Carts:    carts,
		Orders:   orders,
		Checkout: checkoutService,
		Rules:    rules,
		Logger:   log,
		Env:      cfg.App.Env,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	// In-flight settlements get a grace period; the order commit is already
	// durable either way.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("stopped")
	return nil
}
