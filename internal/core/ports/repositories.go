package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// DBTransactor abstracts database transaction lifecycle so services can
// group repository writes atomically without importing the driver.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Rollback(ctx context.Context, tx pgx.Tx) error
	Commit(ctx context.Context, tx pgx.Tx) error
}

// MerchantRepository accesses merchant records and their gateway credentials.
type MerchantRepository interface {
	GetByExtID(ctx context.Context, extID string) (*domain.Merchant, error)
	Create(ctx context.Context, m *domain.Merchant) error
	UpdateCredentials(ctx context.Context, extID, accessID, secretKeyEnc string) error
}

// BranchRepository accesses branch records scoped to a merchant.
type BranchRepository interface {
	GetByExtID(ctx context.Context, merchantExtID, branchExtID string) (*domain.Branch, error)
	Create(ctx context.Context, b *domain.Branch) error
}

// WalletRepository manages merchant wallet balances and ledger entries.
// Debit applies the requested amount and fee as a single conditional
// balance update; it returns ErrInsufficientFunds when the balance
// cannot cover amount+fee.
type WalletRepository interface {
	GetByMerchantExtID(ctx context.Context, merchantExtID string) (*domain.Wallet, error)
	Create(ctx context.Context, w *domain.Wallet) error
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount, fee decimal.Decimal, reference string) error
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, entryType domain.LedgerEntryType, reference string) error
	ListLedgerEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}

// TransactionRepository persists transaction records across their lifecycle.
type TransactionRepository interface {
	Create(ctx context.Context, rec *domain.TransactionRecord) error
	CreateTx(ctx context.Context, tx pgx.Tx, rec *domain.TransactionRecord) error
	GetByMerchantTxID(ctx context.Context, merchantTxID string) (*domain.TransactionRecord, error)
	// GetByReference looks up a transaction by merchant, kind and the
	// caller-supplied reference identifier.
	GetByReference(ctx context.Context, merchantExtID string, kind domain.TransactionKind, referenceID string) (*domain.TransactionRecord, error)
	// FindReferencing returns follow-up transactions (captures, releases,
	// refunds) that point at the given acquirer authorization.
	FindReferencing(ctx context.Context, acquirerAuthorizationID string) ([]domain.TransactionRecord, error)
	// GetAuthorizationByAcquirerID resolves the authorization record that
	// owns the given acquirer authorization identifier.
	GetAuthorizationByAcquirerID(ctx context.Context, acquirerAuthorizationID string) (*domain.TransactionRecord, error)
	// RecordOutcome transitions a transaction to a final status, storing
	// the gateway response and acquirer identifiers. It returns false
	// without error when the stored status does not permit the
	// transition, leaving the record untouched.
	RecordOutcome(ctx context.Context, merchantTxID string, status domain.TransactionStatus, acquirerTxID, acquirerAuthID *string, gatewayResponse []byte) (bool, error)
	RecordOutcomeTx(ctx context.Context, tx pgx.Tx, merchantTxID string, status domain.TransactionStatus, acquirerTxID, acquirerAuthID *string, gatewayResponse []byte) (bool, error)
	ListByMerchant(ctx context.Context, merchantExtID string, limit, offset int) ([]domain.TransactionRecord, error)
}

// SubscriptionRepository manages merchant subscriptions for the renewal scheduler.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *domain.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	GetActiveByMerchant(ctx context.Context, merchantExtID string) (*domain.Subscription, error)
	// ListExpiringWithin returns active subscriptions whose expiry falls
	// on or before the given instant.
	ListExpiringWithin(ctx context.Context, deadline time.Time) ([]domain.Subscription, error)
	UpdateExpiry(ctx context.Context, tx pgx.Tx, id uuid.UUID, expiresAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error
}

// NotificationRepository persists merchant notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ExistsByReference reports whether a notification of the given type
	// already exists for the reference, used to dedupe scheduler runs.
	ExistsByReference(ctx context.Context, merchantExtID string, notifType domain.NotificationType, reference string) (bool, error)
	ListByMerchant(ctx context.Context, merchantExtID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// IdempotencyRepository is the durable second layer of duplicate detection.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
	Save(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
}

// IdempotencyCache is the fast first layer of duplicate detection.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
