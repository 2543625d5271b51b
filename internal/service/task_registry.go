package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/validation"
)

// CreateTaskInput: параметры нового задания.
type CreateTaskInput struct {
	Title           string
	Detail          string
	PayableAmount   int64
	RequiredWorkers int64
	CompletionDate  time.Time
	SubmissionInfo  string
	ImageURL        *string
}

func (in CreateTaskInput) validate() error {
	if in.PayableAmount <= 0 {
		return apperror.New(apperror.ErrCodeInvalidArgument, "оплата за задание должна быть положительной")
	}
	if in.RequiredWorkers <= 0 {
		return apperror.New(apperror.ErrCodeInvalidArgument, "количество исполнителей должно быть положительным")
	}
	if err := validation.ValidateTaskTitle(in.Title); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateTaskDetail(in.Detail); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateSubmissionInfo(in.SubmissionInfo); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateCompletionDate(in.CompletionDate, time.Now()); err != nil {
		return invalid(err)
	}
	return invalid(validation.ValidateImageURL(in.ImageURL))
}

// UpdateTaskInput: изменения задания. PayableAmount и RequiredWorkers принимаются
// только для того, чтобы явно отказать: финансовые поля через обновление не меняются.
type UpdateTaskInput struct {
	models.TaskUpdate
	PayableAmount   *int64
	RequiredWorkers *int64
}

func (in UpdateTaskInput) validate() error {
	if in.PayableAmount != nil || in.RequiredWorkers != nil {
		return apperror.New(apperror.ErrCodeInvalidArgument, "оплату и количество исполнителей менять нельзя")
	}
	if in.IsEmpty() {
		return apperror.New(apperror.ErrCodeInvalidArgument, "нет полей для обновления")
	}
	if in.Title != nil {
		if err := validation.ValidateTaskTitle(*in.Title); err != nil {
			return invalid(err)
		}
	}
	if in.Detail != nil {
		if err := validation.ValidateTaskDetail(*in.Detail); err != nil {
			return invalid(err)
		}
	}
	if in.SubmissionInfo != nil {
		if err := validation.ValidateSubmissionInfo(*in.SubmissionInfo); err != nil {
			return invalid(err)
		}
	}
	if in.CompletionDate != nil {
		if err := validation.ValidateCompletionDate(*in.CompletionDate, time.Now()); err != nil {
			return invalid(err)
		}
	}
	return invalid(validation.ValidateImageURL(in.ImageURL))
}

// DeletedTask: итог удаления задания.
type DeletedTask struct {
	Task     models.Task         `json:"task"`
	Refund   int64               `json:"refund"`
	Rejected []models.Submission `json:"rejected_submissions"`
}

// taskRegistry работает с заданиями внутри единицы работы.
type taskRegistry struct {
	u *unit
}

// create списывает эскроу и сохраняет задание. Без денег задание не появляется.
func (r taskRegistry) create(ctx context.Context, buyer *models.User, in CreateTaskInput) (*models.Task, error) {
	if buyer.Role != valueobject.RoleBuyer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создавать задания может только покупатель")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	total, err := valueobject.EscrowTotal(in.PayableAmount, in.RequiredWorkers)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:              uuid.New(),
		BuyerID:         buyer.ID,
		Title:           in.Title,
		Detail:          in.Detail,
		PayableAmount:   in.PayableAmount,
		RequiredWorkers: in.RequiredWorkers,
		CompletionDate:  in.CompletionDate,
		SubmissionInfo:  in.SubmissionInfo,
		ImageURL:        in.ImageURL,
	}

	if _, err := r.u.ledger.debit(ctx, buyer.ID, total, models.LedgerKindEscrowHold, &task.ID); err != nil {
		return nil, err
	}
	if err := r.u.repos.Tasks.Create(ctx, task); err != nil {
		return nil, storeError(err, nil)
	}

	return task, nil
}

// lockOwned берёт задание под блокировку и проверяет, что actor владеет заданием или является админом.
func (r taskRegistry) lockOwned(ctx context.Context, actor *models.User, taskID uuid.UUID) (*models.Task, error) {
	task, err := r.u.repos.Tasks.GetForUpdate(ctx, taskID)
	if err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}
	if task.BuyerID != actor.ID && actor.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return task, nil
}

func (r taskRegistry) update(ctx context.Context, actor *models.User, taskID uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	task, err := r.lockOwned(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	in.Apply(task)
	if err := r.u.repos.Tasks.Update(ctx, task); err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}
	return task, nil
}

// remove возвращает покупателю неизрасходованное эскроу, отклоняет ожидающие
// отправки и удаляет задание.
func (r taskRegistry) remove(ctx context.Context, actor *models.User, taskID uuid.UUID) (*DeletedTask, error) {
	task, err := r.lockOwned(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	refund := task.RemainingEscrow()
	if refund > 0 {
		if _, err := r.u.ledger.credit(ctx, task.BuyerID, refund, models.LedgerKindEscrowRefund, &task.ID); err != nil {
			return nil, err
		}
	}

	rejected, err := r.u.repos.Submissions.RejectPendingByTask(ctx, task.ID, actor.ID)
	if err != nil {
		return nil, storeError(err, nil)
	}

	if err := r.u.repos.Tasks.Delete(ctx, task.ID); err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}

	return &DeletedTask{Task: *task, Refund: refund, Rejected: rejected}, nil
}

// decrementSlot занимает одно место задания или возвращает NO_SLOTS_AVAILABLE.
func (r taskRegistry) decrementSlot(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	task, err := r.u.repos.Tasks.DecrementSlot(ctx, taskID)
	if err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}
	return task, nil
}
