package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a merchant's balance in a single currency.
// The balance never goes negative; it is mutated only through the ledger
// store's atomic credit/debit operations.
type Wallet struct {
	ID            uuid.UUID       `json:"id"`
	MerchantExtID string          `json:"merchant_ext_id"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LedgerEntryType classifies a balance movement.
type LedgerEntryType string

const (
	EntryCredit LedgerEntryType = "CREDIT"
	EntryDebit  LedgerEntryType = "DEBIT"
	EntryFee    LedgerEntryType = "FEE"
)

// LedgerEntry is one append-only balance movement. The sum of credits minus
// debits and fees for a wallet must reconcile to its balance.
type LedgerEntry struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Type      LedgerEntryType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionFee computes the fee for a payment amount at the given percent
// rate, rounded to the currency's minor unit.
func TransactionFee(amount decimal.Decimal, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}
