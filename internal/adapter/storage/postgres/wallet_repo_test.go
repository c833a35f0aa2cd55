package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluepay/internal/core/domain"
	"bluepay/pkg/apperror"
)

func newTestWallet() *domain.Wallet {
	return &domain.Wallet{
		ID:            uuid.New(),
		MerchantExtID: "merchant-1",
		Balance:       decimal.NewFromFloat(100.00),
		Currency:      "EUR",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "merchant_ext_id", "balance", "currency", "created_at", "updated_at"}).
		AddRow(w.ID, w.MerchantExtID, w.Balance, w.Currency, w.CreatedAt, w.UpdatedAt)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.MerchantExtID, w.Balance, w.Currency, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByMerchantExtID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE merchant_ext_id").
		WithArgs(w.MerchantExtID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByMerchantExtID(context.Background(), w.MerchantExtID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.True(t, w.Balance.Equal(result.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByMerchantExtID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE merchant_ext_id").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	result, err := repo.GetByMerchantExtID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Debit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	amount := decimal.NewFromFloat(50.00)
	fee := decimal.NewFromFloat(0.75)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance = balance -").
		WithArgs(amount.Add(fee), walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(pgxmock.AnyArg(), walletID, domain.EntryDebit, amount, "tx-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(pgxmock.AnyArg(), walletID, domain.EntryFee, fee, "tx-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Debit(context.Background(), tx, walletID, amount, fee, "tx-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Debit_InsufficientFunds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	amount := decimal.NewFromFloat(500.00)
	fee := decimal.NewFromFloat(7.50)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance = balance -").
		WithArgs(amount.Add(fee), walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Debit(context.Background(), tx, walletID, amount, fee, "tx-2")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "PAY_001", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Debit_ZeroFee_SkipsFeeEntry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	amount := decimal.NewFromFloat(25.00)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance = balance -").
		WithArgs(amount, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(pgxmock.AnyArg(), walletID, domain.EntryDebit, amount, "tx-3").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Debit(context.Background(), tx, walletID, amount, decimal.Zero, "tx-3")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Credit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	amount := decimal.NewFromFloat(30.00)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance = balance \\+").
		WithArgs(amount, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(pgxmock.AnyArg(), walletID, domain.EntryCredit, amount, "refund-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Credit(context.Background(), tx, walletID, amount, domain.EntryCredit, "refund-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
