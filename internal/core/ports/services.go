package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// PaymentRequest starts an instant (barcode) payment.
type PaymentRequest struct {
	MerchantExtID string          `json:"merchant_ext_id"`
	BranchExtID   string          `json:"branch_ext_id"`
	ReferenceID   string          `json:"reference_id"`
	Barcode       string          `json:"barcode"`
	Scheme        string          `json:"scheme"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Slip          string          `json:"slip,omitempty"`
}

// AuthorizationRequest registers a deferred (DMS) authorization hold.
type AuthorizationRequest struct {
	MerchantExtID string          `json:"merchant_ext_id"`
	BranchExtID   string          `json:"branch_ext_id"`
	ReferenceID   string          `json:"reference_id"`
	Barcode       string          `json:"barcode"`
	Scheme        string          `json:"scheme"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

// CaptureRequest captures a previously approved authorization.
// Amount is optional; zero means capture the authorized amount.
type CaptureRequest struct {
	MerchantExtID             string          `json:"merchant_ext_id"`
	ReferenceID               string          `json:"reference_id"`
	MerchantAuthorizationTxID string          `json:"merchant_authorization_id"`
	Amount                    decimal.Decimal `json:"amount"`
	Currency                  string          `json:"currency,omitempty"`
	Slip                      string          `json:"slip,omitempty"`
	SlipDateTime              string          `json:"slip_date_time,omitempty"`
}

// ReleaseRequest voids a previously approved authorization hold.
type ReleaseRequest struct {
	MerchantExtID             string `json:"merchant_ext_id"`
	ReferenceID               string `json:"reference_id"`
	MerchantAuthorizationTxID string `json:"merchant_authorization_id"`
}

// RefundRequest refunds a captured authorization.
type RefundRequest struct {
	MerchantExtID       string          `json:"merchant_ext_id"`
	ReferenceID         string          `json:"reference_id"`
	MerchantCaptureTxID string          `json:"merchant_capture_id"`
	Amount              decimal.Decimal `json:"amount"`
	Reason              string          `json:"reason,omitempty"`
}

// PaymentResult is the service-level view of a completed operation.
type PaymentResult struct {
	MerchantTxID string                   `json:"merchant_tx_id"`
	Status       domain.TransactionStatus `json:"status"`
	AcquirerTxID *string                  `json:"acquirer_tx_id,omitempty"`
	Replayed     bool                     `json:"replayed"`
}

// PaymentService runs the payment lifecycle engine.
type PaymentService interface {
	SubmitPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	CancelPayment(ctx context.Context, merchantExtID, merchantTxID string) (*PaymentResult, error)
	GetStatus(ctx context.Context, merchantExtID, merchantTxID string) (*domain.TransactionRecord, error)
	Authorize(ctx context.Context, req AuthorizationRequest) (*PaymentResult, error)
	Capture(ctx context.Context, req CaptureRequest) (*PaymentResult, error)
	Release(ctx context.Context, req ReleaseRequest) (*PaymentResult, error)
	Refund(ctx context.Context, req RefundRequest) (*PaymentResult, error)
}

// WebhookReconciler applies asynchronous acquirer state callbacks to
// stored transaction records.
type WebhookReconciler interface {
	Reconcile(ctx context.Context, payload []byte) (*domain.WebhookAck, error)
}

// SubscriptionService manages subscriptions and drives the renewal scheduler.
type SubscriptionService interface {
	Subscribe(ctx context.Context, merchantExtID, plan string, amount decimal.Decimal, currency string) (*domain.Subscription, error)
	Cancel(ctx context.Context, merchantExtID string) error
	RunOnce(ctx context.Context) error
}

// WalletService exposes the merchant-facing wallet surface: balance,
// deposits and the ledger.
type WalletService interface {
	Balance(ctx context.Context, merchantExtID string) (*domain.Wallet, error)
	Deposit(ctx context.Context, merchantExtID string, amount decimal.Decimal, reference string) (*domain.Wallet, error)
	Ledger(ctx context.Context, merchantExtID string, limit int) ([]domain.LedgerEntry, error)
}

// CredentialStore resolves decrypted gateway credentials for a merchant.
type CredentialStore interface {
	Resolve(ctx context.Context, merchantExtID string) (*domain.Credentials, error)
	Store(ctx context.Context, merchantExtID string, creds domain.Credentials) error
}

// EncryptionService encrypts secrets at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService issues and validates merchant API tokens.
type TokenService interface {
	Generate(merchantExtID string) (string, time.Time, error)
	Validate(token string) (string, error)
}

// Clock abstracts time for the scheduler so tests can control it.
type Clock interface {
	Now() time.Time
}
