package handler

import (
	"merchant-payment-gateway/internal/adapter/http/middleware"
	redisStore "merchant-payment-gateway/internal/adapter/storage/redis"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PaymentSvc     ports.PaymentService
	PayoutSvc      ports.PayoutService
	ReconcileSvc   ports.ReconcileService
	ReportingSvc   ports.ReportingService
	Verifier       ports.WebhookVerifier
	MerchantRepo   ports.MerchantRepository
	TxnRepo        ports.TransactionRepository
	PayoutRepo     ports.PayoutRepository
	HashSvc        ports.HashService
	TokenSvc       ports.TokenService
	FiatGateway    ports.FiatGateway
	CryptoGateway  ports.CryptoGateway
	AuditSvc       ports.AuditService              // nil = audit logging disabled
	RateLimitStore *redisStore.RateLimitStore      // nil = rate limiting disabled
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

	// --- Provider webhooks (authenticated per rail, never rate limited) ---
	webhookHandler := NewWebhookHandler(deps.TxnRepo, deps.PayoutRepo, deps.Verifier, deps.ReconcileSvc, deps.AuditSvc, deps.Logger)
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/flutterwave", webhookHandler.HandleFlutterwaveCharge)
		webhooks.POST("/flutterwave/transfers", webhookHandler.HandleFlutterwaveTransfer)
		webhooks.POST("/bybit/:environment", webhookHandler.HandleBybitDeposit)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- API-key-authenticated routes (merchant API) ---
	apiKeyAuth := middleware.APIKeyAuth(deps.MerchantRepo, deps.HashSvc, deps.Logger)
	paymentHandler := NewPaymentHandler(deps.PaymentSvc, deps.ReconcileSvc)
	payoutHandler := NewPayoutHandler(deps.PayoutSvc, deps.ReportingSvc)
	assetHandler := NewAssetHandler(deps.FiatGateway, deps.CryptoGateway)

	payments := v1.Group("/payments", apiKeyAuth)
	{
		payments.POST("", rl("payments"), paymentHandler.InitiateFiatPayment)
		payments.POST("/crypto", rl("payments"), paymentHandler.InitiateCryptoPayment)
		payments.POST("/confirm", rl("payments"), paymentHandler.ConfirmTransaction)
	}

	payouts := v1.Group("/payouts", apiKeyAuth)
	{
		payouts.POST("", rl("payouts"), payoutHandler.RequestPayout)
		payouts.GET("", rl("query"), payoutHandler.ListPayouts)
	}

	assets := v1.Group("", apiKeyAuth)
	{
		assets.GET("/banks", rl("query"), assetHandler.ListBanks)
		assets.GET("/assets/coins", rl("query"), assetHandler.ListCoins)
	}

	// --- JWT-authenticated routes (read-only query surface) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.ReportingSvc)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("", rl("query"), walletHandler.GetWalletSnapshot)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("query"), walletHandler.ListTransactions)
	}

	return r
}
