package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// UserHandler обслуживает регистрацию и данные вызывающего.
type UserHandler struct {
	users  *service.UserService
	escrow *service.EscrowService
}

func NewUserHandler(users *service.UserService, escrow *service.EscrowService) *UserHandler {
	return &UserHandler{users: users, escrow: escrow}
}

// Register POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req dto.RegisterRequest
	// Тело необязательно.
	if c.Request.ContentLength > 0 && !common.BindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), p, service.RegisterInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, user)
}

// Me GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	me, err := h.users.Me(c.Request.Context(), p)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, me)
}

// Balance GET /api/me/balance
func (h *UserHandler) Balance(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	balance, err := h.escrow.Balance(c.Request.Context(), p)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// Ledger GET /api/me/ledger
func (h *UserHandler) Ledger(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	entries, err := h.escrow.ListLedgerEntries(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, entries, limit, offset)
}
