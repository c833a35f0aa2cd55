package handler

import (
	"bluepay/internal/adapter/http/dto"
	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
	"bluepay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubscriptionHandler handles subscription and notification endpoints.
type SubscriptionHandler struct {
	subscriptionSvc ports.SubscriptionService
	notifRepo       ports.NotificationRepository
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionSvc ports.SubscriptionService, notifRepo ports.NotificationRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionSvc: subscriptionSvc, notifRepo: notifRepo}
}

// Subscribe handles POST /api/v1/subscriptions.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	sub, err := h.subscriptionSvc.Subscribe(c.Request.Context(), merchantExtID, req.Plan, req.Amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toSubscriptionResponse(sub))
}

// Cancel handles POST /api/v1/subscriptions/cancel.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	if err := h.subscriptionSvc.Cancel(c.Request.Context(), merchantExtID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"canceled": true})
}

// ListNotifications handles GET /api/v1/notifications.
func (h *SubscriptionHandler) ListNotifications(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	limit := queryInt(c, "limit", 50)

	notifs, err := h.notifRepo.ListByMerchant(c.Request.Context(), merchantExtID, unreadOnly, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.NotificationResponse, 0, len(notifs))
	for i := range notifs {
		out = append(out, toNotificationResponse(&notifs[i]))
	}
	response.OK(c, out)
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
func (h *SubscriptionHandler) MarkNotificationRead(c *gin.Context) {
	if _, ok := merchantFromContext(c); !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid notification id"))
		return
	}

	if err := h.notifRepo.MarkRead(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"read": true})
}

func toSubscriptionResponse(s *domain.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:        s.ID.String(),
		Plan:      s.Plan,
		Amount:    s.Amount,
		Currency:  s.Currency,
		Status:    string(s.Status),
		ExpiresAt: s.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toNotificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Reference: n.Reference,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
