package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the billing state of a merchant subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// RenewalExtension is how far a successful renewal pushes expires_at.
const RenewalExtension = 30 * 24 * time.Hour

// Subscription is a merchant's billing plan. Renewal is decided by the
// scheduler: a successful debit of the plan price extends ExpiresAt, an
// insufficient-funds failure cancels the subscription.
type Subscription struct {
	ID            uuid.UUID          `json:"id"`
	MerchantExtID string             `json:"merchant_ext_id"`
	Plan          string             `json:"plan"`
	Amount        decimal.Decimal    `json:"amount"`
	Currency      string             `json:"currency"`
	Status        SubscriptionStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     time.Time          `json:"expires_at"`
}

// NotificationType classifies scheduler and reconciler notifications.
type NotificationType string

const (
	NotifySubscriptionExpiry   NotificationType = "subscription_expiry"
	NotifySubscriptionRenewed  NotificationType = "subscription_renewed"
	NotifySubscriptionCanceled NotificationType = "subscription_canceled"
	NotifyWebhookConflict      NotificationType = "webhook_conflict"
)

// Notification is a merchant-facing message. Read state is mutated by the
// merchant-facing collaborator; the core only creates and lists.
type Notification struct {
	ID            uuid.UUID        `json:"id"`
	MerchantExtID string           `json:"merchant_ext_id"`
	Type          NotificationType `json:"type"`
	Reference     string           `json:"reference"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}
