package handler

import (
	"io"

	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
	"bluepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives asynchronous acquirer callbacks.
type WebhookHandler struct {
	reconciler ports.WebhookReconciler
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(reconciler ports.WebhookReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// HandleWebhook handles POST /api/v1/dms/webhook. The raw body is passed
// through untouched so the reconciler can store it verbatim.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	ack, err := h.reconciler.Reconcile(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, ack)
}
