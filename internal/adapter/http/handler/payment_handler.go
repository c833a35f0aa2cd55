package handler

import (
	"strconv"

	"bluepay/internal/adapter/http/dto"
	"bluepay/internal/adapter/http/middleware"
	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
	"bluepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles the instant payment lifecycle endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
	txRepo     ports.TransactionRepository
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService, txRepo ports.TransactionRepository) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, txRepo: txRepo}
}

// SubmitPayment handles POST /api/v1/payments.
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.SubmitPayment(c.Request.Context(), ports.PaymentRequest{
		MerchantExtID: merchantExtID,
		BranchExtID:   req.BranchExtID,
		ReferenceID:   req.ReferenceID,
		Barcode:       req.Barcode,
		Scheme:        req.Scheme,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Slip:          req.Slip,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}

// CancelPayment handles POST /api/v1/payments/cancel.
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.CancelPayment(c.Request.Context(), merchantExtID, req.MerchantTxID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResponse(result))
}

// GetStatus handles GET /api/v1/payments/status.
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	merchantTxID := c.Query("merchant_tx_id")
	if merchantTxID == "" {
		response.Error(c, apperror.Validation("merchant_tx_id is required"))
		return
	}

	rec, err := h.paymentSvc.GetStatus(c.Request.Context(), merchantExtID, merchantTxID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(rec))
}

// ListTransactions handles GET /api/v1/transactions.
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	records, err := h.txRepo.ListByMerchant(c.Request.Context(), merchantExtID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(records))
	for i := range records {
		out = append(out, toTransactionResponse(&records[i]))
	}
	response.OK(c, out)
}

// merchantFromContext reads the authenticated merchant identifier set by the
// JWT middleware. It writes the error response itself on failure.
func merchantFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxMerchantExtID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		response.Error(c, apperror.ErrInvalidToken())
		return "", false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	s := c.Query(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// toPaymentResponse converts a service result to its DTO.
func toPaymentResponse(r *ports.PaymentResult) dto.PaymentResponse {
	return dto.PaymentResponse{
		MerchantTxID: r.MerchantTxID,
		Status:       string(r.Status),
		AcquirerTxID: r.AcquirerTxID,
		Replayed:     r.Replayed,
	}
}

// toTransactionResponse converts a stored record to its DTO.
func toTransactionResponse(rec *domain.TransactionRecord) dto.TransactionResponse {
	return dto.TransactionResponse{
		MerchantTxID:            rec.MerchantTxID,
		ReferenceID:             rec.ReferenceID,
		Kind:                    string(rec.Kind),
		RequestedAmount:         rec.RequestedAmount,
		Currency:                rec.Currency,
		Status:                  string(rec.Status),
		AcquirerTxID:            rec.AcquirerTxID,
		AcquirerAuthorizationID: rec.AcquirerAuthorizationID,
		CreatedAt:               rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:               rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
