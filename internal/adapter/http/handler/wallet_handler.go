package handler

import (
	"bluepay/internal/adapter/http/dto"
	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
	"bluepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet balance, deposit and ledger endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance handles GET /api/v1/wallets/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	w, err := h.walletSvc.Balance(c.Request.Context(), merchantExtID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		Balance:  w.Balance,
		Currency: w.Currency,
	})
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	w, err := h.walletSvc.Deposit(c.Request.Context(), merchantExtID, req.Amount, req.Reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		Balance:  w.Balance,
		Currency: w.Currency,
	})
}

// GetLedger handles GET /api/v1/wallets/ledger.
func (h *WalletHandler) GetLedger(c *gin.Context) {
	merchantExtID, ok := merchantFromContext(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 0)

	entries, err := h.walletSvc.Ledger(c.Request.Context(), merchantExtID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toLedgerEntryResponse(&entries[i]))
	}
	response.OK(c, out)
}

func toLedgerEntryResponse(e *domain.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:        e.ID.String(),
		Type:      string(e.Type),
		Amount:    e.Amount,
		Reference: e.Reference,
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
