package handler

import (
	"custodial-wallet-backend/internal/adapter/http/middleware"
	redisStore "custodial-wallet-backend/internal/adapter/storage/redis"
	"custodial-wallet-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	TransferSvc    ports.TransferService
	WalletSvc      ports.WalletService
	RateSvc        ports.RateService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	rateHandler := NewRateHandler(deps.RateSvc)
	v1.GET("/rates/:pair", rl("rates"), rateHandler.GetRate)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	txHandler := NewTransactionHandler(deps.TransferSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.POST("", rl("transfers"), txHandler.Transfer)
		transactions.GET("", rl("history"), txHandler.ListTransactions)
		transactions.GET("/:id", rl("history"), txHandler.GetTransaction)
	}

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("", rl("wallets"), walletHandler.GetWallets)
	}

	return r
}
