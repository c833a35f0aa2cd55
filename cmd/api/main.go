package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bluepay/config"
	"bluepay/internal/adapter/acquirer"
	httpHandler "bluepay/internal/adapter/http/handler"
	pgStorage "bluepay/internal/adapter/storage/postgres"
	redisStorage "bluepay/internal/adapter/storage/redis"
	"bluepay/internal/core/ports"
	"bluepay/internal/service"
	"bluepay/pkg/logger"

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
		Msg("Starting BluePay payment engine")

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
	branchRepo := pgStorage.NewBranchRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	subscriptionRepo := pgStorage.NewSubscriptionRepo(pool)
	notificationRepo := pgStorage.NewNotificationRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	credentialSvc := service.NewCredentialService(merchantRepo, encSvc, log)

	// Acquirer gateway client
	gateway := acquirer.New(cfg.Acquirer.BaseURL, cfg.Acquirer.Timeout, log)

	feeRate, err := decimal.NewFromString(cfg.Fees.PaymentRatePercent)
	if err != nil {
		log.Fatal().Err(err).Str("rate", cfg.Fees.PaymentRatePercent).Msg("Invalid fee rate")
	}

	// Initialize business services
	paymentSvc := service.NewPaymentService(
		merchantRepo,
		branchRepo,
		walletRepo,
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		credentialSvc,
		gateway,
		transactor,
		feeRate,
		log,
	)
	reconcileSvc := service.NewReconcileService(txRepo, notificationRepo, walletRepo, transactor, feeRate, log)
	walletSvc := service.NewWalletService(walletRepo, transactor, log)
	subscriptionSvc := service.NewSubscriptionService(
		subscriptionRepo,
		notificationRepo,
		walletRepo,
		transactor,
		service.NewClock(),
		cfg.Scheduler.NotifyWindow,
		cfg.Scheduler.Interval,
		log,
	)

	// Renewal scheduler lifecycle
	subscriptionSvc.Start(ctx)
	defer subscriptionSvc.Stop()

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:       paymentSvc,
		Reconciler:       reconcileSvc,
		WalletSvc:        walletSvc,
		SubscriptionSvc:  subscriptionSvc,
		CredentialSvc:    credentialSvc,
		TokenSvc:         tokenSvc,
		AcquirerClient:   gateway,
		TransactionRepo:  txRepo,
		NotificationRepo: notificationRepo,
		HealthCheckers:   []ports.HealthChecker{pgHealth, redisHealth},
		Logger:           log,
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
