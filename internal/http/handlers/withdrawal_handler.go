package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

type WithdrawalHandler struct {
	escrow *service.EscrowService
}

func NewWithdrawalHandler(escrow *service.EscrowService) *WithdrawalHandler {
	return &WithdrawalHandler{escrow: escrow}
}

// CreateWithdrawal POST /api/withdrawals
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req dto.WithdrawalRequest
	if !common.BindJSON(c, &req) {
		return
	}

	w, err := h.escrow.RequestWithdrawal(c.Request.Context(), p, service.WithdrawalInput{
		Coins:            req.Coins,
		PaymentSystem:    req.PaymentSystem,
		AccountReference: req.AccountReference,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, w)
}

// ListMyWithdrawals GET /api/withdrawals/my
func (h *WithdrawalHandler) ListMyWithdrawals(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	withdrawals, err := h.escrow.ListWorkerWithdrawals(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, withdrawals, limit, offset)
}

// ListPending GET /api/admin/withdrawals
func (h *WithdrawalHandler) ListPending(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	withdrawals, err := h.escrow.ListPendingWithdrawals(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, withdrawals, limit, offset)
}

// Approve POST /api/admin/withdrawals/:id/approve
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	requestID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	w, err := h.escrow.ApproveWithdrawal(c.Request.Context(), p, requestID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, w)
}
