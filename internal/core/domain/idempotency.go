package domain

import "time"

// IdempotencyLog caches the terminal outcome of an operation keyed by the
// caller-supplied reference, so client retries return the stored result
// instead of re-issuing the acquirer call.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "merchant_ext_id:kind:reference_id"
	MerchantTxID string    `json:"merchant_tx_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey constructs the standard key format.
func BuildIdempotencyKey(merchantExtID string, kind TransactionKind, referenceID string) string {
	return merchantExtID + ":" + string(kind) + ":" + referenceID
}
