package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bluepay/internal/core/domain"
)

// BranchRepo implements ports.BranchRepository.
type BranchRepo struct {
	pool Pool
}

// NewBranchRepo creates a new BranchRepo.
func NewBranchRepo(pool Pool) *BranchRepo {
	return &BranchRepo{pool: pool}
}

// GetByExtID fetches a branch scoped to its merchant.
func (r *BranchRepo) GetByExtID(ctx context.Context, merchantExtID, branchExtID string) (*domain.Branch, error) {
	query := `SELECT ext_id, merchant_ext_id, name, terminal, operator, created_at
		FROM branches WHERE merchant_ext_id = $1 AND ext_id = $2`

	b := &domain.Branch{}
	err := r.pool.QueryRow(ctx, query, merchantExtID, branchExtID).Scan(
		&b.ExtID, &b.MerchantExtID, &b.Name, &b.Terminal, &b.Operator, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch by ext id: %w", err)
	}
	return b, nil
}

// Create inserts a new branch.
func (r *BranchRepo) Create(ctx context.Context, b *domain.Branch) error {
	query := `INSERT INTO branches (ext_id, merchant_ext_id, name, terminal, operator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		b.ExtID, b.MerchantExtID, b.Name, b.Terminal, b.Operator, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}
	return nil
}
