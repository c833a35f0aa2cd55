package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionRecord_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		kind     TransactionKind
		status   TransactionStatus
		terminal bool
	}{
		{"pending payment", KindPayment, StatusPending, false},
		{"approved payment is final", KindPayment, StatusApproved, true},
		{"approved authorization still has edges", KindAuthorization, StatusApproved, false},
		{"declined", KindPayment, StatusDeclined, true},
		{"error", KindAuthorization, StatusError, true},
		{"captured", KindAuthorization, StatusCaptured, true},
		{"released", KindAuthorization, StatusReleased, true},
		{"refunded", KindAuthorization, StatusRefunded, true},
		{"cancelled", KindPayment, StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &TransactionRecord{Kind: tt.kind, Status: tt.status}
			assert.Equal(t, tt.terminal, rec.IsTerminal())
		})
	}
}

func TestTransactionRecord_CanTransition(t *testing.T) {
	auth := func(status TransactionStatus) *TransactionRecord {
		return &TransactionRecord{Kind: KindAuthorization, Status: status}
	}

	assert.True(t, auth(StatusPending).CanTransition(StatusApproved))
	assert.True(t, auth(StatusPending).CanTransition(StatusDeclined))
	assert.True(t, auth(StatusPending).CanTransition(StatusError))
	assert.True(t, auth(StatusPending).CanTransition(StatusCancelled))
	assert.True(t, auth(StatusApproved).CanTransition(StatusCaptured))
	assert.True(t, auth(StatusApproved).CanTransition(StatusReleased))
	assert.True(t, auth(StatusCaptured).CanTransition(StatusRefunded))

	// An already captured authorization must reject release.
	assert.False(t, auth(StatusCaptured).CanTransition(StatusReleased))
	// Refund requires a capture first.
	assert.False(t, auth(StatusApproved).CanTransition(StatusRefunded))
	// Declined is terminal.
	assert.False(t, auth(StatusDeclined).CanTransition(StatusApproved))
	// Payments have no capture edge.
	pay := &TransactionRecord{Kind: KindPayment, Status: StatusApproved}
	assert.False(t, pay.CanTransition(StatusCaptured))
}

func TestMapGatewayState(t *testing.T) {
	assert.Equal(t, StatusApproved, MapGatewayState("APPROVED"))
	assert.Equal(t, StatusDeclined, MapGatewayState("DECLINED"))
	assert.Equal(t, StatusError, MapGatewayState("FAILURE"))
	assert.Equal(t, StatusError, MapGatewayState(""))
}

func TestTransactionFee(t *testing.T) {
	// 50.00 at 1.5% -> 0.75
	fee := TransactionFee(decimal.RequireFromString("50.00"), decimal.RequireFromString("1.5"))
	assert.True(t, fee.Equal(decimal.RequireFromString("0.75")), "got %s", fee)

	// Rounds to the minor unit.
	fee = TransactionFee(decimal.RequireFromString("9.99"), decimal.RequireFromString("1.5"))
	assert.True(t, fee.Equal(decimal.RequireFromString("0.15")), "got %s", fee)

	fee = TransactionFee(decimal.Zero, decimal.RequireFromString("1.5"))
	assert.True(t, fee.IsZero())
}

func TestNewMerchantTxID_Formats(t *testing.T) {
	payID := NewMerchantTxID(KindPayment)
	assert.Len(t, payID, 36) // uuid

	authID := NewMerchantTxID(KindAuthorization)
	assert.True(t, strings.HasPrefix(authID, "auth_"))
	assert.Len(t, strings.TrimPrefix(authID, "auth_"), 12)

	refundID := NewMerchantTxID(KindRefund)
	assert.True(t, strings.HasPrefix(refundID, "refund_"))

	// Correlation ids must be unique per call.
	assert.NotEqual(t, NewMerchantTxID(KindCapture), NewMerchantTxID(KindCapture))
}

func TestBuildIdempotencyKey(t *testing.T) {
	key := BuildIdempotencyKey("mrc-1", KindPayment, "ORDER-42")
	assert.Equal(t, "mrc-1:PAYMENT:ORDER-42", key)
}

func TestParseAcquirerWebhook(t *testing.T) {
	raw := []byte(`{"merchant_tx_id":"tx-1","payment":{"state":"APPROVED","acquirer_tx_id":"A1"}}`)
	w, err := ParseAcquirerWebhook(raw)
	assert.NoError(t, err)
	assert.Equal(t, "tx-1", w.MerchantTxID)
	assert.Equal(t, "APPROVED", w.Payment.State)
	assert.Equal(t, "A1", w.Payment.AcquirerTxID)

	_, err = ParseAcquirerWebhook([]byte("{not json"))
	assert.Error(t, err)
}
