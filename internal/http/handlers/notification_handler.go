package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(n *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// ListNotifications GET /api/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	items, unread, err := h.notifications.ListNotifications(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NotificationsResponse{Items: items, Unread: unread})
}

// MarkAsRead PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	id, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkAsRead(c.Request.Context(), p, id); err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondSuccess(c, "уведомление прочитано", nil)
}
