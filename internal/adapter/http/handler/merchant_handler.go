package handler

import (
	"encoding/json"
	"net/http"

	"bluepay/internal/adapter/http/dto"
	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
	"bluepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles credential onboarding and the thin passthrough
// endpoints that proxy straight to the acquirer.
type MerchantHandler struct {
	credStore ports.CredentialStore
	acquirer  ports.AcquirerClient
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(credStore ports.CredentialStore, acquirer ports.AcquirerClient) *MerchantHandler {
	return &MerchantHandler{credStore: credStore, acquirer: acquirer}
}

// StoreCredentials handles PUT /api/v1/merchants/me/credentials.
func (h *MerchantHandler) StoreCredentials(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	err := h.credStore.Store(c.Request.Context(), merchantExtID, domain.Credentials{
		AccessID:  req.AccessID,
		SecretKey: req.SecretKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"updated": true})
}

// CreateMerchantToken handles POST /api/v1/merchant-token. The acquirer
// response is forwarded as-is.
func (h *MerchantHandler) CreateMerchantToken(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	creds, err := h.credStore.Resolve(c.Request.Context(), merchantExtID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.acquirer.CreateMerchantToken(c.Request.Context(), *creds, merchantExtID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.HTTPStatus < http.StatusOK || result.HTTPStatus >= http.StatusMultipleChoices {
		response.Error(c, apperror.ErrGateway(result.HTTPStatus))
		return
	}

	response.OK(c, json.RawMessage(result.RawBody))
}

// CreateReceipt handles POST /api/v1/receipts. The receipt payload is
// forwarded to the acquirer for the given transaction.
func (h *MerchantHandler) CreateReceipt(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	creds, err := h.credStore.Resolve(c.Request.Context(), merchantExtID)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := json.Marshal(gin.H{"receipt": req.Receipt})
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	result, err := h.acquirer.CreateReceipt(c.Request.Context(), *creds, req.AcquirerTxID, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.HTTPStatus < http.StatusOK || result.HTTPStatus >= http.StatusMultipleChoices {
		response.Error(c, apperror.ErrGateway(result.HTTPStatus))
		return
	}

	response.Created(c, json.RawMessage(result.RawBody))
}
