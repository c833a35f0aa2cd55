package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluepay/internal/core/domain"
)

func newTestTransaction(kind domain.TransactionKind) *domain.TransactionRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.TransactionRecord{
		MerchantTxID:    domain.NewMerchantTxID(kind),
		ReferenceID:     "ORDER-42",
		MerchantExtID:   "merchant-1",
		Kind:            kind,
		RequestedAmount: decimal.NewFromFloat(49.99),
		Currency:        "EUR",
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func transactionColumns() []string {
	return []string{
		"merchant_tx_id", "reference_id", "merchant_ext_id", "kind",
		"requested_amount", "currency", "status", "acquirer_tx_id",
		"acquirer_authorization_id", "terminal", "operator",
		"gateway_request", "gateway_response", "created_at", "updated_at",
	}
}

func transactionRow(rec *domain.TransactionRecord) *pgxmock.Rows {
	return pgxmock.NewRows(transactionColumns()).AddRow(
		rec.MerchantTxID, rec.ReferenceID, rec.MerchantExtID, rec.Kind,
		rec.RequestedAmount, rec.Currency, rec.Status, rec.AcquirerTxID,
		rec.AcquirerAuthorizationID, rec.Terminal, rec.Operator,
		rec.GatewayRequest, rec.GatewayResponse, rec.CreatedAt, rec.UpdatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	rec := newTestTransaction(domain.KindPayment)

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(rec.MerchantTxID, rec.ReferenceID, rec.MerchantExtID, rec.Kind,
			rec.RequestedAmount, rec.Currency, rec.Status, rec.AcquirerTxID,
			rec.AcquirerAuthorizationID, rec.Terminal, rec.Operator,
			rec.GatewayRequest, rec.GatewayResponse, rec.CreatedAt, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByMerchantTxID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	rec := newTestTransaction(domain.KindPayment)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE merchant_tx_id").
		WithArgs(rec.MerchantTxID).
		WillReturnRows(transactionRow(rec))

	result, err := repo.GetByMerchantTxID(context.Background(), rec.MerchantTxID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, rec.MerchantTxID, result.MerchantTxID)
	assert.Equal(t, domain.StatusPending, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByMerchantTxID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE merchant_tx_id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(transactionColumns()))

	result, err := repo.GetByMerchantTxID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	rec := newTestTransaction(domain.KindCapture)

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(rec.MerchantExtID, rec.Kind, rec.ReferenceID).
		WillReturnRows(transactionRow(rec))

	result, err := repo.GetByReference(context.Background(), rec.MerchantExtID, domain.KindCapture, rec.ReferenceID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, rec.MerchantTxID, result.MerchantTxID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_RecordOutcome_Applied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	acqID := "acq-1"

	mock.ExpectExec("UPDATE transactions").
		WithArgs("tx-1", domain.StatusApproved, &acqID, (*string)(nil), []byte(`{"state":"APPROVED"}`), domain.StatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := repo.RecordOutcome(context.Background(), "tx-1", domain.StatusApproved, &acqID, nil, []byte(`{"state":"APPROVED"}`))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_RecordOutcome_GuardBlocksTerminalRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectExec("UPDATE transactions").
		WithArgs("tx-2", domain.StatusDeclined, (*string)(nil), (*string)(nil), []byte(nil), domain.StatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.RecordOutcome(context.Background(), "tx-2", domain.StatusDeclined, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_RecordOutcome_RefundRequiresCaptured(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectExec("UPDATE transactions").
		WithArgs("authorization_abc", domain.StatusRefunded, (*string)(nil), (*string)(nil), []byte(nil), domain.StatusCaptured).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := repo.RecordOutcome(context.Background(), "authorization_abc", domain.StatusRefunded, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_FindReferencing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	capture := newTestTransaction(domain.KindCapture)
	authID := "acq-auth-7"
	capture.AcquirerAuthorizationID = &authID

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(authID).
		WillReturnRows(transactionRow(capture))

	results, err := repo.FindReferencing(context.Background(), authID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, capture.MerchantTxID, results[0].MerchantTxID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
