package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchant-payment-gateway/config"
	httpHandler "merchant-payment-gateway/internal/adapter/http/handler"
	"merchant-payment-gateway/internal/adapter/provider/bybit"
	"merchant-payment-gateway/internal/adapter/provider/flutterwave"
	pgStorage "merchant-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "merchant-payment-gateway/internal/adapter/storage/redis"
	"merchant-payment-gateway/internal/core/ports"
	"merchant-payment-gateway/internal/service"
	"merchant-payment-gateway/pkg/logger"
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
		Msg("Starting Merchant Payment Gateway")

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
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txnRepo := pgStorage.NewTransactionRepo(pool)
	payoutRepo := pgStorage.NewPayoutRepo(pool)
	eventRepo := pgStorage.NewWebhookEventRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	eventCache := redisStorage.NewEventCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	verifier := service.NewWebhookVerifierService(cfg.Providers)

	// Initialize provider clients
	fiatGateway := flutterwave.NewClient(cfg.Providers.Flutterwave, log)
	cryptoGateway := bybit.NewClient(cfg.Providers.Bybit, log)

	// Initialize business services
	auditSvc := service.NewAuditService(auditRepo, log)
	ledgerSvc := service.NewLedgerService(walletRepo, log)
	notifier := service.NewNotifyService(merchantRepo, sigSvc, &http.Client{Timeout: 10 * time.Second}, log)
	paymentSvc := service.NewPaymentService(txnRepo, merchantRepo, fiatGateway, cryptoGateway, transactor, log)
	payoutSvc := service.NewPayoutService(
		payoutRepo,
		merchantRepo,
		ledgerSvc,
		fiatGateway,
		transactor,
		encSvc,
		auditSvc,
		cfg.Server.BaseURL,
		log,
	)
	reconcileSvc := service.NewReconcileService(
		txnRepo,
		payoutRepo,
		eventRepo,
		ledgerSvc,
		transactor,
		eventCache,
		notifier,
		auditSvc,
		log,
	)
	reportingSvc := service.NewReportingService(walletRepo, txnRepo, payoutRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		PayoutSvc:      payoutSvc,
		ReconcileSvc:   reconcileSvc,
		ReportingSvc:   reportingSvc,
		Verifier:       verifier,
		MerchantRepo:   merchantRepo,
		TxnRepo:        txnRepo,
		PayoutRepo:     payoutRepo,
		HashSvc:        hashSvc,
		TokenSvc:       tokenSvc,
		FiatGateway:    fiatGateway,
		CryptoGateway:  cryptoGateway,
		AuditSvc:       auditSvc,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
