package domain

import "encoding/json"

// AcquirerWebhook is the inbound callback payload the acquirer posts for
// asynchronous transaction updates. The shape is part of the acquirer's
// wire contract and must not change.
type AcquirerWebhook struct {
	MerchantTxID string `json:"merchant_tx_id"`
	Payment      struct {
		State        string `json:"state"`
		AcquirerTxID string `json:"acquirer_tx_id"`
	} `json:"payment"`
}

// ParseAcquirerWebhook decodes a raw webhook body.
func ParseAcquirerWebhook(raw []byte) (*AcquirerWebhook, error) {
	var w AcquirerWebhook
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// WebhookAck is the reconciler's answer to a delivery. The reconciler
// always acknowledges; Applied and Conflict tell the caller what happened.
type WebhookAck struct {
	MerchantTxID string            `json:"merchant_tx_id"`
	Applied      bool              `json:"applied"`
	Conflict     bool              `json:"conflict"`
	Status       TransactionStatus `json:"status,omitempty"`
}
