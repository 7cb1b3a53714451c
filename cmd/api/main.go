package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custodial-wallet-backend/config"
	httpHandler "custodial-wallet-backend/internal/adapter/http/handler"
	"custodial-wallet-backend/internal/adapter/pricefeed"
	pgStorage "custodial-wallet-backend/internal/adapter/storage/postgres"
	redisStorage "custodial-wallet-backend/internal/adapter/storage/redis"
	"custodial-wallet-backend/internal/core/ports"
	"custodial-wallet-backend/internal/service"
	"custodial-wallet-backend/pkg/logger"

	"github.com/shopspring/decimal"
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
		Msg("Starting Custodial Wallet Backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	rateRepo := pgStorage.NewRateRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize upstream price feed
	feedClient := pricefeed.NewClient(
		cfg.PriceFeed.BaseURL,
		pricefeed.NewHTTPClient(cfg.PriceFeed.RequestTimeout, cfg.PriceFeed.ConnectTimeout),
		cfg.PriceFeed.MaxRetries,
		log,
	)

	// Parse fallback rates
	fallbacks := make(map[string]decimal.Decimal, len(cfg.Rates.Fallbacks))
	for symbol, raw := range cfg.Rates.Fallbacks {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			log.Fatal().Err(err).Str("symbol", symbol).Msg("Invalid fallback rate")
		}
		fallbacks[symbol] = rate
	}

	// Initialize services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	walletSvc := service.NewWalletService(walletRepo, log)
	rateSvc := service.NewRateService(feedClient, rateRepo, fallbacks, log)
	transferSvc := service.NewTransferService(
		walletSvc,
		walletRepo,
		txRepo,
		idempotencyCache,
		transactor,
		cfg.Receipts.BaseURL,
		log,
	)

	// Warm the rate cache, then keep it fresh in the background
	rateSvc.Seed(ctx)
	go rateSvc.RunRefreshLoop(ctx, cfg.PriceFeed.RefreshInterval)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		TransferSvc:    transferSvc,
		WalletSvc:      walletSvc,
		RateSvc:        rateSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
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
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
