package ports

import (
	"context"

	"bluepay/internal/core/domain"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks

// GatewayPayment is the wire payload for an instant barcode payment.
type GatewayPayment struct {
	BranchExtID     string `json:"branch_ext_id"`
	MerchantTxID    string `json:"merchant_tx_id"`
	Scheme          string `json:"scheme,omitempty"`
	Barcode         string `json:"barcode"`
	RequestedAmount int64  `json:"requested_amount"`
	Currency        string `json:"currency"`
	Slip            string `json:"slip,omitempty"`
	SlipDateTime    string `json:"slip_date_time,omitempty"`
	Terminal        string `json:"terminal,omitempty"`
	Operator        string `json:"operator,omitempty"`
}

// GatewayAuthorization registers a deferred authorization hold.
type GatewayAuthorization struct {
	BranchExtID             string `json:"branch_ext_id"`
	MerchantAuthorizationID string `json:"merchant_authorization_id"`
	Scheme                  string `json:"scheme,omitempty"`
	Barcode                 string `json:"barcode"`
	RequestedAmount         int64  `json:"requested_amount"`
	Currency                string `json:"currency"`
	Terminal                string `json:"terminal,omitempty"`
	Operator                string `json:"operator,omitempty"`
}

// GatewayCapture captures a registered authorization.
type GatewayCapture struct {
	AcquirerAuthorizationID string `json:"acquirer_authorization_id"`
	MerchantCaptureID       string `json:"merchant_capture_id"`
	RequestedAmount         int64  `json:"requested_amount"`
	Currency                string `json:"currency"`
	Slip                    string `json:"slip,omitempty"`
	SlipDateTime            string `json:"slip_date_time,omitempty"`
	Terminal                string `json:"terminal,omitempty"`
	Operator                string `json:"operator,omitempty"`
}

// GatewayRelease voids a registered authorization hold. The acquirer
// keys releases by the merchant-generated authorization id.
type GatewayRelease struct {
	MerchantAuthorizationID string `json:"merchant_authorization_id"`
}

// GatewayRefund refunds a captured authorization.
type GatewayRefund struct {
	AcquirerAuthorizationID string `json:"acquirer_authorization_id"`
	MerchantRefundID        string `json:"merchant_refund_id"`
	Amount                  int64  `json:"amount"`
	Reason                  string `json:"reason,omitempty"`
}

// GatewayResult carries the raw outcome of a gateway call. Non-2xx
// responses are results, not errors; errors are reserved for transport
// and decoding failures.
type GatewayResult struct {
	HTTPStatus   int
	Result       string // envelope-level result, "OK" on success
	State        string // APPROVED, DECLINED, etc. Empty when the response carries no payment object.
	AcquirerTxID string
	RawBody      []byte
}

// Approved reports whether the gateway accepted the operation. Payment
// and authorization responses carry an explicit state; capture and
// refund responses carry only the envelope result.
func (r *GatewayResult) Approved() bool {
	if r.HTTPStatus < 200 || r.HTTPStatus >= 300 {
		return false
	}
	if r.State != "" {
		return r.State == "APPROVED"
	}
	return r.Result == "OK"
}

// AcquirerClient talks to the external payment acquirer. Every call
// carries the merchant's own credentials; the client holds no state
// beyond its HTTP transport.
type AcquirerClient interface {
	SubmitPayment(ctx context.Context, creds domain.Credentials, p GatewayPayment) (*GatewayResult, error)
	CancelPayment(ctx context.Context, creds domain.Credentials, merchantTxID string) (*GatewayResult, error)
	PaymentStatus(ctx context.Context, creds domain.Credentials, merchantTxID string) (*GatewayResult, error)
	RegisterAuthorization(ctx context.Context, creds domain.Credentials, a GatewayAuthorization) (*GatewayResult, error)
	AuthorizationStatus(ctx context.Context, creds domain.Credentials, merchantAuthorizationID string) (*GatewayResult, error)
	Capture(ctx context.Context, creds domain.Credentials, c GatewayCapture) (*GatewayResult, error)
	CaptureStatus(ctx context.Context, creds domain.Credentials, merchantCaptureID string) (*GatewayResult, error)
	Release(ctx context.Context, creds domain.Credentials, r GatewayRelease) (*GatewayResult, error)
	Refund(ctx context.Context, creds domain.Credentials, r GatewayRefund) (*GatewayResult, error)
	RefundStatus(ctx context.Context, creds domain.Credentials, merchantRefundID string) (*GatewayResult, error)
	CreateMerchantToken(ctx context.Context, creds domain.Credentials, merchantExtID string) (*GatewayResult, error)
	CreateReceipt(ctx context.Context, creds domain.Credentials, acquirerTxID string, payload []byte) (*GatewayResult, error)
}
