package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bluepay/internal/core/domain"
)

// SubscriptionRepo implements ports.SubscriptionRepository.
type SubscriptionRepo struct {
	pool Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(pool Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const selectSubscriptionColumns = `id, merchant_ext_id, plan, amount, currency, status, created_at, expires_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	s := &domain.Subscription{}
	err := row.Scan(
		&s.ID, &s.MerchantExtID, &s.Plan, &s.Amount,
		&s.Currency, &s.Status, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new subscription.
func (r *SubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	query := `INSERT INTO subscriptions (id, merchant_ext_id, plan, amount, currency, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.MerchantExtID, s.Plan, s.Amount, s.Currency, s.Status, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByID fetches a subscription by id.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions WHERE id = $1`

	s, err := scanSubscription(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription by id: %w", err)
	}
	return s, nil
}

// GetActiveByMerchant fetches the merchant's active subscription, if any.
func (r *SubscriptionRepo) GetActiveByMerchant(ctx context.Context, merchantExtID string) (*domain.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions
		WHERE merchant_ext_id = $1 AND status = 'ACTIVE'
		ORDER BY expires_at DESC LIMIT 1`

	s, err := scanSubscription(r.pool.QueryRow(ctx, query, merchantExtID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return s, nil
}

// ListExpiringWithin returns active subscriptions expiring on or before
// the deadline, oldest expiry first.
func (r *SubscriptionRepo) ListExpiringWithin(ctx context.Context, deadline time.Time) ([]domain.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions
		WHERE status = 'ACTIVE' AND expires_at <= $1 ORDER BY expires_at`

	rows, err := r.pool.Query(ctx, query, deadline)
	if err != nil {
		return nil, fmt.Errorf("list expiring subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateExpiry moves a subscription's expiry within a transaction.
func (r *SubscriptionRepo) UpdateExpiry(ctx context.Context, tx pgx.Tx, id uuid.UUID, expiresAt time.Time) error {
	query := `UPDATE subscriptions SET expires_at = $2 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, expiresAt)
	if err != nil {
		return fmt.Errorf("update subscription expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription not found: %s", id)
	}
	return nil
}

// UpdateStatus changes a subscription's status.
func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription not found: %s", id)
	}
	return nil
}
