package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
	"bluepay/pkg/apperror"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, merchant_ext_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.MerchantExtID, w.Balance, w.Currency, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByMerchantExtID fetches a wallet by its owning merchant.
func (r *WalletRepo) GetByMerchantExtID(ctx context.Context, merchantExtID string) (*domain.Wallet, error) {
	query := `SELECT id, merchant_ext_id, balance, currency, created_at, updated_at
		FROM wallets WHERE merchant_ext_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, merchantExtID).Scan(
		&w.ID, &w.MerchantExtID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by merchant: %w", err)
	}
	return w, nil
}

// Debit subtracts amount plus fee from the wallet balance in one
// conditional update and appends the matching ledger entries. A zero
// row count means the balance could not cover the total.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount, fee decimal.Decimal, reference string) error {
	total := amount.Add(fee)

	query := `UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, query, total, walletID)
	if err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrInsufficientFunds()
	}

	if err := r.insertLedgerEntry(ctx, tx, walletID, domain.EntryDebit, amount, reference); err != nil {
		return err
	}
	if fee.IsPositive() {
		if err := r.insertLedgerEntry(ctx, tx, walletID, domain.EntryFee, fee, reference); err != nil {
			return err
		}
	}
	return nil
}

// Credit adds amount to the wallet balance and appends a ledger entry.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, entryType domain.LedgerEntryType, reference string) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, walletID)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrWalletNotFound()
	}

	return r.insertLedgerEntry(ctx, tx, walletID, entryType, amount, reference)
}

func (r *WalletRepo) insertLedgerEntry(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, entryType domain.LedgerEntryType, amount decimal.Decimal, reference string) error {
	query := `INSERT INTO ledger_entries (id, wallet_id, entry_type, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := tx.Exec(ctx, query, uuid.New(), walletID, entryType, amount, reference)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntries returns the most recent ledger entries for a wallet.
func (r *WalletRepo) ListLedgerEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT id, wallet_id, entry_type, amount, reference, created_at
		FROM ledger_entries WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Type, &e.Amount, &e.Reference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
