package dto

import "github.com/shopspring/decimal"

// PaymentRequest is the request body for an instant barcode payment.
type PaymentRequest struct {
	BranchExtID string          `json:"branch_ext_id" binding:"required"`
	ReferenceID string          `json:"reference_id" binding:"required,max=100"`
	Barcode     string          `json:"barcode" binding:"required"`
	Scheme      string          `json:"scheme,omitempty"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required,len=3"`
	Slip        string          `json:"slip,omitempty"`
}

// CancelRequest is the request body for canceling a pending payment.
type CancelRequest struct {
	MerchantTxID string `json:"merchant_tx_id" binding:"required"`
}

// AuthorizationRequest is the request body for a deferred authorization.
type AuthorizationRequest struct {
	BranchExtID string          `json:"branch_ext_id" binding:"required"`
	ReferenceID string          `json:"reference_id" binding:"required,max=100"`
	Barcode     string          `json:"barcode" binding:"required"`
	Scheme      string          `json:"scheme,omitempty"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required,len=3"`
}

// CaptureRequest is the request body for capturing an authorization.
// Amount omitted means capture the full authorized amount.
type CaptureRequest struct {
	ReferenceID               string          `json:"reference_id" binding:"required,max=100"`
	MerchantAuthorizationTxID string          `json:"merchant_authorization_id" binding:"required"`
	Amount                    decimal.Decimal `json:"amount,omitempty"`
	Currency                  string          `json:"currency,omitempty"`
	Slip                      string          `json:"slip,omitempty"`
	SlipDateTime              string          `json:"slip_date_time,omitempty"`
}

// ReleaseRequest is the request body for voiding an authorization hold.
type ReleaseRequest struct {
	ReferenceID               string `json:"reference_id" binding:"required,max=100"`
	MerchantAuthorizationTxID string `json:"merchant_authorization_id" binding:"required"`
}

// RefundRequest is the request body for refunding a capture.
// Amount omitted means refund the full captured amount.
type RefundRequest struct {
	ReferenceID         string          `json:"reference_id" binding:"required,max=100"`
	MerchantCaptureTxID string          `json:"merchant_capture_id" binding:"required"`
	Amount              decimal.Decimal `json:"amount,omitempty"`
	Reason              string          `json:"reason,omitempty"`
}

// DepositRequest is the request body for a wallet deposit.
type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference,omitempty"`
}

// CredentialsRequest onboards a merchant's acquirer credentials.
type CredentialsRequest struct {
	AccessID  string `json:"access_id" binding:"required"`
	SecretKey string `json:"secret_key" binding:"required"`
}

// SubscribeRequest is the request body for creating a subscription.
type SubscribeRequest struct {
	Plan     string          `json:"plan" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required,len=3"`
}

// ReceiptRequest forwards a receipt payload to the acquirer.
type ReceiptRequest struct {
	AcquirerTxID string `json:"acquirer_tx_id" binding:"required"`
	Receipt      string `json:"receipt" binding:"required"`
}

// PaymentResponse is the response body for lifecycle operations.
type PaymentResponse struct {
	MerchantTxID string  `json:"merchant_tx_id"`
	Status       string  `json:"status"`
	AcquirerTxID *string `json:"acquirer_tx_id,omitempty"`
	Replayed     bool    `json:"replayed"`
}

// TransactionResponse is the stored view of a transaction record.
type TransactionResponse struct {
	MerchantTxID            string          `json:"merchant_tx_id"`
	ReferenceID             string          `json:"reference_id"`
	Kind                    string          `json:"kind"`
	RequestedAmount         decimal.Decimal `json:"requested_amount"`
	Currency                string          `json:"currency"`
	Status                  string          `json:"status"`
	AcquirerTxID            *string         `json:"acquirer_tx_id,omitempty"`
	AcquirerAuthorizationID *string         `json:"acquirer_authorization_id,omitempty"`
	CreatedAt               string          `json:"created_at"`
	UpdatedAt               string          `json:"updated_at"`
}

// WalletBalanceResponse is the response for the balance query.
type WalletBalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// LedgerEntryResponse is one wallet ledger line.
type LedgerEntryResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	CreatedAt string          `json:"created_at"`
}

// NotificationResponse is one merchant notification.
type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// SubscriptionResponse is the response body for subscription operations.
type SubscriptionResponse struct {
	ID        string          `json:"id"`
	Plan      string          `json:"plan"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	ExpiresAt string          `json:"expires_at"`
}
