package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bluepay/internal/core/domain"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const insertTransactionQuery = `INSERT INTO transactions
	(merchant_tx_id, reference_id, merchant_ext_id, kind, requested_amount, currency,
	 status, acquirer_tx_id, acquirer_authorization_id, terminal, operator,
	 gateway_request, gateway_response, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// Create inserts a new transaction record.
func (r *TransactionRepo) Create(ctx context.Context, rec *domain.TransactionRecord) error {
	_, err := r.pool.Exec(ctx, insertTransactionQuery, insertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateTx inserts a new transaction record within a transaction.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, rec *domain.TransactionRecord) error {
	_, err := tx.Exec(ctx, insertTransactionQuery, insertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func insertArgs(rec *domain.TransactionRecord) []any {
	return []any{
		rec.MerchantTxID, rec.ReferenceID, rec.MerchantExtID, rec.Kind,
		rec.RequestedAmount, rec.Currency, rec.Status, rec.AcquirerTxID,
		rec.AcquirerAuthorizationID, rec.Terminal, rec.Operator,
		rec.GatewayRequest, rec.GatewayResponse, rec.CreatedAt, rec.UpdatedAt,
	}
}

const selectTransactionColumns = `merchant_tx_id, reference_id, merchant_ext_id, kind,
	requested_amount, currency, status, acquirer_tx_id, acquirer_authorization_id,
	terminal, operator, gateway_request, gateway_response, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.TransactionRecord, error) {
	rec := &domain.TransactionRecord{}
	err := row.Scan(
		&rec.MerchantTxID, &rec.ReferenceID, &rec.MerchantExtID, &rec.Kind,
		&rec.RequestedAmount, &rec.Currency, &rec.Status, &rec.AcquirerTxID,
		&rec.AcquirerAuthorizationID, &rec.Terminal, &rec.Operator,
		&rec.GatewayRequest, &rec.GatewayResponse, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByMerchantTxID fetches a transaction by its correlation key.
func (r *TransactionRepo) GetByMerchantTxID(ctx context.Context, merchantTxID string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE merchant_tx_id = $1`

	rec, err := scanTransaction(r.pool.QueryRow(ctx, query, merchantTxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by merchant tx id: %w", err)
	}
	return rec, nil
}

// GetByReference fetches a transaction by merchant, kind and the
// caller-supplied reference identifier.
func (r *TransactionRepo) GetByReference(ctx context.Context, merchantExtID string, kind domain.TransactionKind, referenceID string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions
		WHERE merchant_ext_id = $1 AND kind = $2 AND reference_id = $3`

	rec, err := scanTransaction(r.pool.QueryRow(ctx, query, merchantExtID, kind, referenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return rec, nil
}

// FindReferencing returns follow-up transactions pointing at the given
// acquirer authorization.
func (r *TransactionRepo) FindReferencing(ctx context.Context, acquirerAuthorizationID string) ([]domain.TransactionRecord, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions
		WHERE acquirer_authorization_id = $1 AND kind != 'AUTHORIZATION'
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, acquirerAuthorizationID)
	if err != nil {
		return nil, fmt.Errorf("find referencing transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetAuthorizationByAcquirerID resolves the authorization record owning
// the given acquirer authorization identifier.
func (r *TransactionRepo) GetAuthorizationByAcquirerID(ctx context.Context, acquirerAuthorizationID string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions
		WHERE acquirer_authorization_id = $1 AND kind = 'AUTHORIZATION'`

	rec, err := scanTransaction(r.pool.QueryRow(ctx, query, acquirerAuthorizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get authorization by acquirer id: %w", err)
	}
	return rec, nil
}

// allowedSource returns the only status a record may hold for the target
// transition to apply. The state machine has exactly one legal source per
// target, which keeps the guard a single equality in SQL.
func allowedSource(to domain.TransactionStatus) domain.TransactionStatus {
	switch to {
	case domain.StatusCaptured, domain.StatusReleased:
		return domain.StatusApproved
	case domain.StatusRefunded:
		return domain.StatusCaptured
	default:
		return domain.StatusPending
	}
}

const recordOutcomeQuery = `UPDATE transactions
	SET status = $2, acquirer_tx_id = COALESCE($3, acquirer_tx_id),
	    acquirer_authorization_id = COALESCE($4, acquirer_authorization_id),
	    gateway_response = COALESCE($5, gateway_response), updated_at = NOW()
	WHERE merchant_tx_id = $1 AND status = $6`

// RecordOutcome transitions a record to a final status, guarded so a
// record already past the source state is left untouched. The returned
// bool reports whether the update applied.
func (r *TransactionRepo) RecordOutcome(ctx context.Context, merchantTxID string, status domain.TransactionStatus, acquirerTxID, acquirerAuthID *string, gatewayResponse []byte) (bool, error) {
	tag, err := r.pool.Exec(ctx, recordOutcomeQuery,
		merchantTxID, status, acquirerTxID, acquirerAuthID, gatewayResponse, allowedSource(status),
	)
	if err != nil {
		return false, fmt.Errorf("record transaction outcome: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecordOutcomeTx is RecordOutcome within an existing transaction.
func (r *TransactionRepo) RecordOutcomeTx(ctx context.Context, tx pgx.Tx, merchantTxID string, status domain.TransactionStatus, acquirerTxID, acquirerAuthID *string, gatewayResponse []byte) (bool, error) {
	tag, err := tx.Exec(ctx, recordOutcomeQuery,
		merchantTxID, status, acquirerTxID, acquirerAuthID, gatewayResponse, allowedSource(status),
	)
	if err != nil {
		return false, fmt.Errorf("record transaction outcome: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByMerchant returns a page of a merchant's transactions, newest first.
func (r *TransactionRepo) ListByMerchant(ctx context.Context, merchantExtID string, limit, offset int) ([]domain.TransactionRecord, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions
		WHERE merchant_ext_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, merchantExtID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]domain.TransactionRecord, error) {
	var recs []domain.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return recs, nil
}
