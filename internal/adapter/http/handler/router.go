package handler

import (
	"bluepay/internal/adapter/http/middleware"
	"bluepay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PaymentSvc       ports.PaymentService
	Reconciler       ports.WebhookReconciler
	WalletSvc        ports.WalletService
	SubscriptionSvc  ports.SubscriptionService
	CredentialSvc    ports.CredentialStore
	TokenSvc         ports.TokenService
	AcquirerClient   ports.AcquirerClient
	TransactionRepo  ports.TransactionRepository
	NotificationRepo ports.NotificationRepository
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Deep health check, verifies PostgreSQL and Redis.
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes ---
	// The acquirer posts state callbacks here; it authenticates with the
	// payload contents, not a merchant token.
	webhookHandler := NewWebhookHandler(deps.Reconciler)
	v1.POST("/dms/webhook", webhookHandler.HandleWebhook)

	// --- JWT-authenticated merchant routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	paymentHandler := NewPaymentHandler(deps.PaymentSvc, deps.TransactionRepo)
	payments := v1.Group("/payments", jwtAuth)
	{
		payments.POST("", paymentHandler.SubmitPayment)
		payments.POST("/cancel", paymentHandler.CancelPayment)
		payments.GET("/status", paymentHandler.GetStatus)
	}

	dmsHandler := NewDMSHandler(deps.PaymentSvc)
	dms := v1.Group("/dms", jwtAuth)
	{
		dms.POST("/authorization", dmsHandler.Authorize)
		dms.POST("/capture", dmsHandler.Capture)
		dms.POST("/release", dmsHandler.Release)
		dms.POST("/refund", dmsHandler.Refund)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balance", walletHandler.GetBalance)
		wallets.POST("/deposit", walletHandler.Deposit)
		wallets.GET("/ledger", walletHandler.GetLedger)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", paymentHandler.ListTransactions)
	}

	subscriptionHandler := NewSubscriptionHandler(deps.SubscriptionSvc, deps.NotificationRepo)
	subscriptions := v1.Group("/subscriptions", jwtAuth)
	{
		subscriptions.POST("", subscriptionHandler.Subscribe)
		subscriptions.POST("/cancel", subscriptionHandler.Cancel)
	}

	notifications := v1.Group("/notifications", jwtAuth)
	{
		notifications.GET("", subscriptionHandler.ListNotifications)
		notifications.POST("/:id/read", subscriptionHandler.MarkNotificationRead)
	}

	merchantHandler := NewMerchantHandler(deps.CredentialSvc, deps.AcquirerClient)
	v1.PUT("/merchants/me/credentials", jwtAuth, merchantHandler.StoreCredentials)
	v1.POST("/merchant-token", jwtAuth, merchantHandler.CreateMerchantToken)
	v1.POST("/receipts", jwtAuth, merchantHandler.CreateReceipt)

	return r
}
