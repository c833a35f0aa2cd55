package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of acquirer operation a record tracks.
type TransactionKind string

const (
	KindPayment       TransactionKind = "PAYMENT"
	KindAuthorization TransactionKind = "AUTHORIZATION"
	KindCapture       TransactionKind = "CAPTURE"
	KindRelease       TransactionKind = "RELEASE"
	KindRefund        TransactionKind = "REFUND"
)

// TransactionStatus represents the lifecycle state of a transaction record.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusApproved  TransactionStatus = "APPROVED"
	StatusDeclined  TransactionStatus = "DECLINED"
	StatusError     TransactionStatus = "ERROR"
	StatusCaptured  TransactionStatus = "CAPTURED"
	StatusReleased  TransactionStatus = "RELEASED"
	StatusRefunded  TransactionStatus = "REFUNDED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// TransactionRecord tracks one acquirer round trip from creation to its
// terminal state. MerchantTxID is the engine-generated correlation key sent
// to the acquirer; ReferenceID is the caller-supplied idempotency key.
type TransactionRecord struct {
	MerchantTxID            string            `json:"merchant_tx_id"`
	ReferenceID             string            `json:"reference_id"`
	MerchantExtID           string            `json:"merchant_ext_id"`
	Kind                    TransactionKind   `json:"kind"`
	RequestedAmount         decimal.Decimal   `json:"requested_amount"`
	Currency                string            `json:"currency"`
	Status                  TransactionStatus `json:"status"`
	AcquirerTxID            *string           `json:"acquirer_tx_id,omitempty"`
	AcquirerAuthorizationID *string           `json:"acquirer_authorization_id,omitempty"`
	Terminal                string            `json:"terminal,omitempty"`
	Operator                string            `json:"operator,omitempty"`
	GatewayRequest          json.RawMessage   `json:"gateway_request,omitempty"`
	GatewayResponse         json.RawMessage   `json:"gateway_response,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// IsTerminal reports whether the record has reached a state that must never
// change again. An approved authorization still has capture/release edges;
// an approved payment is final.
func (t *TransactionRecord) IsTerminal() bool {
	switch t.Status {
	case StatusDeclined, StatusError, StatusCaptured, StatusReleased, StatusRefunded, StatusCancelled:
		return true
	case StatusApproved:
		return t.Kind != KindAuthorization
	}
	return false
}

// CanTransition reports whether moving from the record's current status to
// the target status is a legal edge of the lifecycle state machine.
func (t *TransactionRecord) CanTransition(to TransactionStatus) bool {
	switch t.Status {
	case StatusPending:
		switch to {
		case StatusApproved, StatusDeclined, StatusError, StatusCancelled:
			return true
		}
	case StatusApproved:
		if t.Kind != KindAuthorization {
			return false
		}
		switch to {
		case StatusCaptured, StatusReleased:
			return true
		}
	case StatusCaptured:
		// Refund is the only edge out of a captured authorization.
		return t.Kind == KindAuthorization && to == StatusRefunded
	}
	return false
}

// MapGatewayState maps the acquirer's payment state to a local status.
// Anything other than APPROVED/DECLINED becomes ERROR so the raw response
// stays available for diagnosis.
func MapGatewayState(state string) TransactionStatus {
	switch state {
	case "APPROVED":
		return StatusApproved
	case "DECLINED":
		return StatusDeclined
	default:
		return StatusError
	}
}
