package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-checkout/config"
	muralClient "crypto-checkout/internal/adapter/client/mural"
	httpHandler "crypto-checkout/internal/adapter/http/handler"
	pgStorage "crypto-checkout/internal/adapter/storage/postgres"
	redisStorage "crypto-checkout/internal/adapter/storage/redis"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/internal/service"
	"crypto-checkout/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Crypto Checkout")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	productRepo := pgStorage.NewProductRepo(pool)
	cartRepo := pgStorage.NewCartRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	payoutRepo := pgStorage.NewPayoutRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	eventDedup := redisStorage.NewEventDedupStore(rdb)

	// Initialize Mural partner client
	partner := muralClient.NewClient(cfg.Mural, log)

	// Initialize business services
	poolSvc := service.NewWalletPoolService(walletRepo, partner, transactor, cfg.Checkout.WalletNamePrefix, log)
	productSvc := service.NewProductService(productRepo, log)
	cartSvc := service.NewCartService(cartRepo, productRepo, log)
	orderSvc := service.NewOrderService(
		orderRepo,
		cartRepo,
		walletRepo,
		poolSvc,
		transactor,
		cfg.Checkout.OrderExpiry,
		cfg.Checkout.TokenSymbol,
		log,
	)
	payoutSvc := service.NewPayoutService(payoutRepo, partner, log)
	reconSvc := service.NewReconciliationService(orderRepo, walletRepo, payoutSvc, transactor, log)
	webhookSvc, err := service.NewWebhookService(
		reconSvc,
		payoutSvc,
		eventDedup,
		cfg.Mural.WebhookPublicKey,
		cfg.Checkout.TokenSymbol,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize webhook service")
	}

	// Seed the wallet pool from partner accounts. Startup proceeds even if
	// the partner is unreachable; wallets are provisioned on demand.
	if err := poolSvc.Bootstrap(ctx); err != nil {
		log.Warn().Err(err).Msg("Wallet pool bootstrap failed")
	}

	// Background expiry sweep for overdue orders
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go orderSvc.RunExpirySweep(sweepCtx, cfg.Checkout.SweepInterval)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ProductSvc:     productSvc,
		CartSvc:        cartSvc,
		OrderSvc:       orderSvc,
		PayoutSvc:      payoutSvc,
		WebhookSvc:     webhookSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
