package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// PurchaseHandler принимает подтверждённые покупки от checkout-провайдера
// и отдаёт покупателю историю платежей.
type PurchaseHandler struct {
	purchases *service.PurchaseService
}

func NewPurchaseHandler(p *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: p}
}

// RecordPurchase POST /internal/purchases
// Новая покупка отвечает 201, повтор с той же ссылкой провайдера отвечает 200.
func (h *PurchaseHandler) RecordPurchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if !common.BindJSON(c, &req) {
		return
	}
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		common.Fail(c, apperror.New(apperror.ErrCodeInvalidArgument, "buyer_id должен быть валидным UUID"))
		return
	}

	purchase, created, err := h.purchases.RecordPurchase(c.Request.Context(), service.PurchaseInput{
		BuyerID:           buyerID,
		Coins:             req.Coins,
		AmountPaid:        req.AmountPaid,
		ProviderReference: req.ProviderReference,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.RespondJSON(c, status, dto.PurchaseResponse{Purchase: purchase, Created: created})
}

// ListMyPurchases GET /api/purchases/my
func (h *PurchaseHandler) ListMyPurchases(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	items, err := h.purchases.ListPurchases(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, items, limit, offset)
}
