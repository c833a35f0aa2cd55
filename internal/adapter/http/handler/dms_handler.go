package handler

import (
	"bluepay/internal/adapter/http/dto"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
	"bluepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// DMSHandler handles the deferred (authorize/capture) endpoints.
type DMSHandler struct {
	paymentSvc ports.PaymentService
}

// NewDMSHandler creates a new DMSHandler.
func NewDMSHandler(paymentSvc ports.PaymentService) *DMSHandler {
	return &DMSHandler{paymentSvc: paymentSvc}
}

// Authorize handles POST /api/v1/dms/authorization.
func (h *DMSHandler) Authorize(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.AuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.Authorize(c.Request.Context(), ports.AuthorizationRequest{
		MerchantExtID: merchantExtID,
		BranchExtID:   req.BranchExtID,
		ReferenceID:   req.ReferenceID,
		Barcode:       req.Barcode,
		Scheme:        req.Scheme,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}

// Capture handles POST /api/v1/dms/capture.
func (h *DMSHandler) Capture(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.Capture(c.Request.Context(), ports.CaptureRequest{
		MerchantExtID:             merchantExtID,
		ReferenceID:               req.ReferenceID,
		MerchantAuthorizationTxID: req.MerchantAuthorizationTxID,
		Amount:                    req.Amount,
		Currency:                  req.Currency,
		Slip:                      req.Slip,
		SlipDateTime:              req.SlipDateTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}

// Release handles POST /api/v1/dms/release.
func (h *DMSHandler) Release(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.Release(c.Request.Context(), ports.ReleaseRequest{
		MerchantExtID:             merchantExtID,
		ReferenceID:               req.ReferenceID,
		MerchantAuthorizationTxID: req.MerchantAuthorizationTxID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}

// Refund handles POST /api/v1/dms/refund.
func (h *DMSHandler) Refund(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.Refund(c.Request.Context(), ports.RefundRequest{
		MerchantExtID:       merchantExtID,
		ReferenceID:         req.ReferenceID,
		MerchantCaptureTxID: req.MerchantCaptureTxID,
		Amount:              req.Amount,
		Reason:              req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}
