package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// AdminHandler: управление пользователями.
type AdminHandler struct {
	users *service.UserService
}

func NewAdminHandler(users *service.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// ListUsers GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	users, err := h.users.ListUsers(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, users, limit, offset)
}

// ChangeRole PUT /api/admin/users/:id/role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	userID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := h.users.ChangeRole(c.Request.Context(), p, userID, req.Role)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, user)
}

// Deactivate POST /api/admin/users/:id/deactivate
func (h *AdminHandler) Deactivate(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	userID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), p, userID); err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondSuccess(c, "пользователь деактивирован", nil)
}
