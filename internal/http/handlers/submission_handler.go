package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// SubmissionHandler обслуживает отправки исполнителей и их проверку.
type SubmissionHandler struct {
	escrow *service.EscrowService
}

func NewSubmissionHandler(escrow *service.EscrowService) *SubmissionHandler {
	return &SubmissionHandler{escrow: escrow}
}

// Submit POST /api/tasks/:id/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitRequest
	if !common.BindJSON(c, &req) {
		return
	}

	submission, err := h.escrow.Submit(c.Request.Context(), p, taskID, req.Details)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, submission)
}

// ListMySubmissions GET /api/submissions/my
func (h *SubmissionHandler) ListMySubmissions(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	subs, err := h.escrow.ListWorkerSubmissions(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, subs, limit, offset)
}

// ListPendingReviews GET /api/submissions/review
func (h *SubmissionHandler) ListPendingReviews(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	subs, err := h.escrow.ListPendingReviews(c.Request.Context(), p, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondList(c, subs, limit, offset)
}

// Approve POST /api/submissions/:id/approve
func (h *SubmissionHandler) Approve(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	submissionID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	submission, err := h.escrow.ApproveSubmission(c.Request.Context(), p, submissionID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, submission)
}

// Reject POST /api/submissions/:id/reject
func (h *SubmissionHandler) Reject(c *gin.Context) {
	p, ok := common.CurrentPrincipal(c)
	if !ok {
		return
	}
	submissionID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	submission, err := h.escrow.RejectSubmission(c.Request.Context(), p, submissionID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, submission)
}
