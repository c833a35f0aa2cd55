package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
)

const defaultLedgerLimit = 50

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	wallets    ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(wallets ports.WalletRepository, transactor ports.DBTransactor, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{wallets: wallets, transactor: transactor, log: log}
}

// Balance returns the merchant's wallet.
func (s *WalletServiceImpl) Balance(ctx context.Context, merchantExtID string) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByMerchantExtID(ctx, merchantExtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// Deposit credits the wallet and returns its refreshed state. A missing
// reference gets a generated one so the ledger entry stays traceable.
func (s *WalletServiceImpl) Deposit(ctx context.Context, merchantExtID string, amount decimal.Decimal, reference string) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.Validation("deposit amount must be positive")
	}

	wallet, err := s.Balance(ctx, merchantExtID)
	if err != nil {
		return nil, err
	}

	if reference == "" {
		reference = "deposit:" + uuid.New().String()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	if err := s.wallets.Credit(ctx, dbTx, wallet.ID, amount, domain.EntryCredit, reference); err != nil {
		return nil, err
	}
	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("merchant_ext_id", merchantExtID).
		Str("amount", amount.String()).
		Str("reference", reference).
		Msg("wallet deposit")

	return s.Balance(ctx, merchantExtID)
}

// Ledger lists the most recent ledger entries for the merchant's wallet.
func (s *WalletServiceImpl) Ledger(ctx context.Context, merchantExtID string, limit int) ([]domain.LedgerEntry, error) {
	wallet, err := s.Balance(ctx, merchantExtID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	entries, err := s.wallets.ListLedgerEntries(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list ledger entries: %w", err))
	}
	return entries, nil
}
