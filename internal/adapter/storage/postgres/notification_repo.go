package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bluepay/internal/core/domain"
)

// NotificationRepo implements ports.NotificationRepository.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create inserts a new notification.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (id, merchant_ext_id, type, reference, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.MerchantExtID, n.Type, n.Reference, n.Message, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ExistsByReference reports whether a notification of the given type is
// already stored for the reference.
func (r *NotificationRepo) ExistsByReference(ctx context.Context, merchantExtID string, notifType domain.NotificationType, reference string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notifications
		WHERE merchant_ext_id = $1 AND type = $2 AND reference = $3)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, merchantExtID, notifType, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check notification exists: %w", err)
	}
	return exists, nil
}

// ListByMerchant returns a merchant's notifications, newest first.
func (r *NotificationRepo) ListByMerchant(ctx context.Context, merchantExtID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := `SELECT id, merchant_ext_id, type, reference, message, is_read, created_at
		FROM notifications WHERE merchant_ext_id = $1 AND ($2 = false OR is_read = false)
		ORDER BY created_at DESC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, merchantExtID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.MerchantExtID, &n.Type, &n.Reference, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifs = append(notifs, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifs, nil
}

// MarkRead flags a notification as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}
	return nil
}
