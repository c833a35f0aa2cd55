package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bluepay/internal/core/domain"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// GetByExtID fetches a merchant by its external identifier.
func (r *MerchantRepo) GetByExtID(ctx context.Context, extID string) (*domain.Merchant, error) {
	query := `SELECT ext_id, name, access_id, secret_key_enc, is_verified, booking_prefix, created_at, updated_at
		FROM merchants WHERE ext_id = $1`

	m := &domain.Merchant{}
	err := r.pool.QueryRow(ctx, query, extID).Scan(
		&m.ExtID, &m.Name, &m.AccessID, &m.SecretKeyEnc,
		&m.IsVerified, &m.BookingPrefix, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant by ext id: %w", err)
	}
	return m, nil
}

// Create inserts a new merchant.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (ext_id, name, access_id, secret_key_enc, is_verified, booking_prefix, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		m.ExtID, m.Name, m.AccessID, m.SecretKeyEnc,
		m.IsVerified, m.BookingPrefix, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// UpdateCredentials stores the gateway access id and encrypted secret.
func (r *MerchantRepo) UpdateCredentials(ctx context.Context, extID, accessID, secretKeyEnc string) error {
	query := `UPDATE merchants SET access_id = $2, secret_key_enc = $3, updated_at = NOW() WHERE ext_id = $1`

	tag, err := r.pool.Exec(ctx, query, extID, accessID, secretKeyEnc)
	if err != nil {
		return fmt.Errorf("update merchant credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", extID)
	}
	return nil
}
