// Package acquirer implements the outbound HTTP client for the payment
// acquirer gateway.
package acquirer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
)

const defaultTimeout = 10 * time.Second

// Client talks to the acquirer over HTTP with per-call basic auth.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ports.AcquirerClient = (*Client)(nil)

// New creates a gateway client. A zero timeout falls back to the
// 10 second default.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "acquirer_client").Logger(),
	}
}

// gatewayEnvelope is the acquirer's response wrapper. The result key
// differs per endpoint family, so both are declared.
type gatewayEnvelope struct {
	Result  string          `json:"result"`
	Payment *gatewayPayment `json:"payment"`
	Auth    *gatewayPayment `json:"authorization"`
}

type gatewayPayment struct {
	State        string `json:"state"`
	AcquirerTxID string `json:"acquirer_tx_id"`
	Code         string `json:"code"`
}

func (c *Client) SubmitPayment(ctx context.Context, creds domain.Credentials, p ports.GatewayPayment) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/payment", map[string]any{"payment": p})
}

func (c *Client) CancelPayment(ctx context.Context, creds domain.Credentials, merchantTxID string) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/cancel", map[string]any{"merchant_tx_id": merchantTxID})
}

func (c *Client) PaymentStatus(ctx context.Context, creds domain.Credentials, merchantTxID string) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/status", map[string]any{"merchant_tx_id": merchantTxID})
}

func (c *Client) RegisterAuthorization(ctx context.Context, creds domain.Credentials, a ports.GatewayAuthorization) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/authorization/register", map[string]any{"authorization": a})
}

func (c *Client) AuthorizationStatus(ctx context.Context, creds domain.Credentials, merchantAuthorizationID string) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/authorization/status", map[string]any{"merchant_authorization_id": merchantAuthorizationID})
}

func (c *Client) Capture(ctx context.Context, creds domain.Credentials, cap ports.GatewayCapture) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/capture", map[string]any{"capture": cap})
}

func (c *Client) CaptureStatus(ctx context.Context, creds domain.Credentials, merchantCaptureID string) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/capture/status", map[string]any{"merchant_capture_id": merchantCaptureID})
}

func (c *Client) Release(ctx context.Context, creds domain.Credentials, r ports.GatewayRelease) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/release", map[string]any{"release": r})
}

func (c *Client) Refund(ctx context.Context, creds domain.Credentials, r ports.GatewayRefund) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/refund", map[string]any{"refund": r})
}

func (c *Client) RefundStatus(ctx context.Context, creds domain.Credentials, merchantRefundID string) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/dms/refund/status", map[string]any{"merchant_refund_id": merchantRefundID})
}

func (c *Client) CreateMerchantToken(ctx context.Context, creds domain.Credentials, merchantExtID string) (*ports.GatewayResult, error) {
	return c.post(ctx, creds, "/merchant_token", map[string]any{"merchant_ext_id": merchantExtID})
}

func (c *Client) CreateReceipt(ctx context.Context, creds domain.Credentials, acquirerTxID string, payload []byte) (*ports.GatewayResult, error) {
	var receipt any
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return nil, apperror.Validation("invalid receipt payload")
	}
	return c.post(ctx, creds, "/receipt", map[string]any{
		"acquirer_tx_id": acquirerTxID,
		"receipt":        receipt,
	})
}

// post sends a JSON body with basic auth and converts the response into
// a GatewayResult. Non-2xx statuses are returned as results so callers
// can record the decline; only transport and decode failures error.
func (c *Client) post(ctx context.Context, creds domain.Credentials, path string, body any) (*ports.GatewayResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.ErrMalformedResponse(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.ErrTransport(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(creds.AccessID, creds.SecretKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("gateway request failed")
		return nil, apperror.ErrTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.ErrMalformedResponse(err)
	}

	result := &ports.GatewayResult{
		HTTPStatus: resp.StatusCode,
		RawBody:    respBody,
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, apperror.ErrMalformedResponse(err)
		}
		// Error bodies from the acquirer are sometimes not JSON. Keep
		// the raw body and let the caller record it.
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("gateway returned non-JSON error body")
		return result, nil
	}

	result.Result = envelope.Result
	if p := envelope.payment(); p != nil {
		result.State = p.State
		result.AcquirerTxID = p.AcquirerTxID
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("state", result.State).
		Dur("elapsed", time.Since(start)).
		Msg("gateway call completed")

	return result, nil
}

func (e *gatewayEnvelope) payment() *gatewayPayment {
	if e.Payment != nil {
		return e.Payment
	}
	return e.Auth
}
