package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/validation"
)

// submissionWorkflow: машина состояний отправки: pending → approved | rejected.
type submissionWorkflow struct {
	u     *unit
	tasks taskRegistry
}

// submit сохраняет ожидающую отправку. Место задания здесь не занимается:
// отправок может быть больше, чем мест, покупатель выбирает, какие одобрить.
func (w submissionWorkflow) submit(ctx context.Context, worker *models.User, taskID uuid.UUID, details string) (*models.Submission, error) {
	if worker.Role != valueobject.RoleWorker {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отправлять работу может только исполнитель")
	}
	if err := validation.ValidateSubmissionDetails(details); err != nil {
		return nil, invalid(err)
	}

	// Разделяемая блокировка не даёт удалить задание, пока отправка не сохранена.
	task, err := w.u.repos.Tasks.GetForShare(ctx, taskID)
	if err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}
	if !task.IsOpen() {
		return nil, apperror.ErrTaskClosed
	}

	submission := &models.Submission{
		ID:            uuid.New(),
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		PayableAmount: task.PayableAmount,
		BuyerID:       task.BuyerID,
		WorkerID:      worker.ID,
		Details:       details,
	}
	if err := w.u.repos.Submissions.Create(ctx, submission); err != nil {
		return nil, storeError(err, nil)
	}
	return submission, nil
}

// reviewable загружает отправку и проверяет статус и права проверяющего.
func (w submissionWorkflow) reviewable(ctx context.Context, reviewer *models.User, submissionID uuid.UUID) (*models.Submission, error) {
	submission, err := w.u.repos.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, storeError(err, apperror.ErrSubmissionNotFound)
	}
	if !submission.IsPending() {
		return nil, apperror.ErrConflict
	}
	if submission.BuyerID != reviewer.ID && reviewer.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return submission, nil
}

// approve: место задания, затем начисление исполнителю по снимку оплаты, затем статус.
// Охраняемое обновление статуса ловит гонку двух одобрений.
func (w submissionWorkflow) approve(ctx context.Context, reviewer *models.User, submissionID uuid.UUID) (*models.Submission, error) {
	submission, err := w.reviewable(ctx, reviewer, submissionID)
	if err != nil {
		return nil, err
	}

	if _, err := w.tasks.decrementSlot(ctx, submission.TaskID); err != nil {
		if errors.Is(err, apperror.ErrNoSlotsAvailable) {
			return nil, w.alreadyDecided(ctx, submission.ID, err)
		}
		return nil, err
	}
	if _, err := w.u.ledger.credit(ctx, submission.WorkerID, submission.PayableAmount, models.LedgerKindTaskPayout, &submission.ID); err != nil {
		return nil, err
	}

	approved, err := w.u.repos.Submissions.Transition(ctx, submission.ID, valueobject.SubmissionStatusApproved, reviewer.ID)
	if err != nil {
		return nil, storeError(err, apperror.ErrSubmissionNotFound)
	}
	return approved, nil
}

// alreadyDecided перечитывает отправку после отказа по местам. Если конкурирующее
// одобрение уже забрало последнее место этой же отправкой, вызывающий получает CONFLICT.
func (w submissionWorkflow) alreadyDecided(ctx context.Context, submissionID uuid.UUID, slotErr error) error {
	current, err := w.u.repos.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return storeError(err, apperror.ErrSubmissionNotFound)
	}
	if !current.IsPending() {
		return apperror.ErrConflict
	}
	return slotErr
}

// reject меняет только статус: отправка ничего не занимала.
func (w submissionWorkflow) reject(ctx context.Context, reviewer *models.User, submissionID uuid.UUID) (*models.Submission, error) {
	submission, err := w.reviewable(ctx, reviewer, submissionID)
	if err != nil {
		return nil, err
	}

	rejected, err := w.u.repos.Submissions.Transition(ctx, submission.ID, valueobject.SubmissionStatusRejected, reviewer.ID)
	if err != nil {
		return nil, storeError(err, apperror.ErrSubmissionNotFound)
	}
	return rejected, nil
}
