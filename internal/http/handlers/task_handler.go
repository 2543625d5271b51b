package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// TaskHandler обслуживает задания покупателей.
type TaskHandler struct {
	escrow *service.EscrowService
}

func NewTaskHandler(escrow *service.EscrowService) *TaskHandler {
	return &TaskHandler{escrow: escrow}
}

// CreateTask POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !common.BindJSON(c, &req) {
		return
	}

	task, err := h.escrow.CreateTask(c.Request.Context(), p, service.CreateTaskInput{
		Title:           req.Title,
		Detail:          req.Detail,
		PayableAmount:   req.PayableAmount,
		RequiredWorkers: req.RequiredWorkers,
		CompletionDate:  req.CompletionDate,
		SubmissionInfo:  req.SubmissionInfo,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, task)
}

// ListOpenTasks GET /api/tasks
func (h *TaskHandler) ListOpenTasks(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	tasks, err := h.escrow.ListOpenTasks(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, tasks, limit, offset)
}

// ListAllTasks GET /api/admin/tasks
func (h *TaskHandler) ListAllTasks(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	tasks, err := h.escrow.ListAllTasks(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, tasks, limit, offset)
}

// ListMyTasks GET /api/tasks/my
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	tasks, err := h.escrow.ListBuyerTasks(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, tasks, limit, offset)
}

// GetTask GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.escrow.GetTask(c.Request.Context(), taskID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, task)
}

// UpdateTask PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !common.BindJSON(c, &req) {
		return
	}

	task, err := h.escrow.UpdateTask(c.Request.Context(), p, taskID, service.UpdateTaskInput{
		TaskUpdate: models.TaskUpdate{
			Title:          req.Title,
			Detail:         req.Detail,
			SubmissionInfo: req.SubmissionInfo,
			CompletionDate: req.CompletionDate,
			ImageURL:       req.ImageURL,
		},
		PayableAmount:   req.PayableAmount,
		RequiredWorkers: req.RequiredWorkers,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, task)
}

// DeleteTask DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.escrow.DeleteTask(c.Request.Context(), p, taskID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.DeleteTaskResponse{
		TaskID:   result.Task.ID.String(),
		Refund:   result.Refund,
		Rejected: len(result.Rejected),
	})
}

// ListTaskSubmissions GET /api/tasks/:id/submissions
func (h *TaskHandler) ListTaskSubmissions(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	subs, err := h.escrow.ListTaskSubmissions(c.Request.Context(), p, taskID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, subs, limit, offset)
}
