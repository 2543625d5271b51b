package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/metrics"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
)

// Маршруты UI, которые получают уведомления.
const (
	routeReview      = "/dashboard/review"
	routeSubmissions = "/dashboard/my-submissions"
	routeWithdrawals = "/dashboard/withdrawals"
	routeTasks       = "/dashboard/my-tasks"
)

// EscrowService: фасад движка эскроу. Каждая изменяющая операция выполняется
// одной транзакцией хранилища, ошибки приводятся к кодам apperror.
type EscrowService struct {
	store  repository.Store
	policy Policy
}

// NewEscrowService создаёт движок.
func NewEscrowService(store repository.Store, policy Policy) *EscrowService {
	return &EscrowService{store: store, policy: policy}
}

// unit: единица работы: репозитории одной транзакции и журнал поверх них.
type unit struct {
	repos  repository.Repositories
	ledger ledger
}

// actor находит вызывающего в хранилище. Роль берётся из хранилища, а не из токена.
func (u *unit) actor(ctx context.Context, p models.Principal) (*models.User, error) {
	return resolveActor(ctx, u.repos.Users, p)
}

func resolveActor(ctx context.Context, users repository.UserRepository, p models.Principal) (*models.User, error) {
	user, err := users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, storeError(err, apperror.New(apperror.ErrCodeForbidden, "пользователь не зарегистрирован"))
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "пользователь деактивирован")
	}
	return user, nil
}

// notify сохраняет уведомление в той же транзакции, что и переход состояния.
func (u *unit) notify(ctx context.Context, userID uuid.UUID, message, route string) error {
	n := &models.Notification{UserID: userID, Message: message, ActionRoute: route}
	if err := u.repos.Notifications.Create(ctx, n); err != nil {
		return storeError(err, nil)
	}
	return nil
}

// runUnit выполняет fn в транзакции, пишет метрики и логирует сбои хранилища.
// Движение монет попадает в метрики только после коммита.
func runUnit(ctx context.Context, store repository.Store, operation string, fn func(ctx context.Context, u *unit) error) error {
	done := metrics.TrackOperation(operation)

	var moved []models.LedgerEntry
	err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		u := &unit{repos: repos, ledger: newLedger(repos.Ledger)}
		if err := fn(ctx, u); err != nil {
			return err
		}
		moved = u.ledger.entries()
		return nil
	})
	if err != nil {
		err = storeError(err, nil)
		done(statusOf(err))
		if code := apperror.CodeOf(err); code == apperror.ErrCodeDatabaseError || code == apperror.ErrCodeInternal {
			logger.WithOperation(operation).WithError(err).Error("operation failed")
		}
		return err
	}

	done(statusOf(nil))
	for _, e := range moved {
		metrics.RecordCoins(e.Kind, e.Amount)
	}
	return nil
}

func (s *EscrowService) run(ctx context.Context, operation string, fn func(ctx context.Context, u *unit) error) error {
	return runUnit(ctx, s.store, operation, fn)
}

// CreateTask списывает эскроу покупателя и публикует задание.
func (s *EscrowService) CreateTask(ctx context.Context, p models.Principal, in CreateTaskInput) (*models.Task, error) {
	var task *models.Task
	err := s.run(ctx, "create_task", func(ctx context.Context, u *unit) error {
		buyer, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		task, err = taskRegistry{u: u}.create(ctx, buyer, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithOperation("create_task").WithFields(map[string]interface{}{
		"task_id":  task.ID,
		"buyer_id": task.BuyerID,
		"escrow":   task.RemainingEscrow(),
	}).Info("task created")
	return task, nil
}

// UpdateTask меняет нефинансовые поля задания.
func (s *EscrowService) UpdateTask(ctx context.Context, p models.Principal, taskID uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	var task *models.Task
	err := s.run(ctx, "update_task", func(ctx context.Context, u *unit) error {
		actor, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		task, err = taskRegistry{u: u}.update(ctx, actor, taskID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask возвращает остаток эскроу покупателю и отклоняет ожидающие отправки.
func (s *EscrowService) DeleteTask(ctx context.Context, p models.Principal, taskID uuid.UUID) (*DeletedTask, error) {
	var result *DeletedTask
	err := s.run(ctx, "delete_task", func(ctx context.Context, u *unit) error {
		actor, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		result, err = taskRegistry{u: u}.remove(ctx, actor, taskID)
		if err != nil {
			return err
		}

		for _, sub := range result.Rejected {
			msg := fmt.Sprintf("Задание «%s» удалено, ваша отправка отклонена", sub.TaskTitle)
			if err := u.notify(ctx, sub.WorkerID, msg, routeSubmissions); err != nil {
				return err
			}
		}
		if actor.ID != result.Task.BuyerID {
			msg := fmt.Sprintf("Администратор удалил задание «%s», возвращено %d монет", result.Task.Title, result.Refund)
			if err := u.notify(ctx, result.Task.BuyerID, msg, routeTasks); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithOperation("delete_task").WithFields(map[string]interface{}{
		"task_id":  taskID,
		"refund":   result.Refund,
		"rejected": len(result.Rejected),
	}).Info("task deleted")
	return result, nil
}

// Submit сохраняет отправку исполнителя по открытому заданию.
func (s *EscrowService) Submit(ctx context.Context, p models.Principal, taskID uuid.UUID, details string) (*models.Submission, error) {
	var submission *models.Submission
	err := s.run(ctx, "submit", func(ctx context.Context, u *unit) error {
		worker, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		tasks := taskRegistry{u: u}
		submission, err = submissionWorkflow{u: u, tasks: tasks}.submit(ctx, worker, taskID, details)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Новая отправка по заданию «%s»", submission.TaskTitle)
		return u.notify(ctx, submission.BuyerID, msg, routeReview)
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// ApproveSubmission занимает место задания и платит исполнителю.
func (s *EscrowService) ApproveSubmission(ctx context.Context, p models.Principal, submissionID uuid.UUID) (*models.Submission, error) {
	var submission *models.Submission
	err := s.run(ctx, "approve_submission", func(ctx context.Context, u *unit) error {
		reviewer, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		tasks := taskRegistry{u: u}
		submission, err = submissionWorkflow{u: u, tasks: tasks}.approve(ctx, reviewer, submissionID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Вы заработали %d монет за задание «%s»", submission.PayableAmount, submission.TaskTitle)
		return u.notify(ctx, submission.WorkerID, msg, routeSubmissions)
	})
	if err != nil {
		return nil, err
	}

	logger.WithOperation("approve_submission").WithFields(map[string]interface{}{
		"submission_id": submission.ID,
		"task_id":       submission.TaskID,
		"worker_id":     submission.WorkerID,
		"amount":        submission.PayableAmount,
	}).Info("submission approved")
	return submission, nil
}

// RejectSubmission отклоняет отправку без движения монет.
func (s *EscrowService) RejectSubmission(ctx context.Context, p models.Principal, submissionID uuid.UUID) (*models.Submission, error) {
	var submission *models.Submission
	err := s.run(ctx, "reject_submission", func(ctx context.Context, u *unit) error {
		reviewer, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		tasks := taskRegistry{u: u}
		submission, err = submissionWorkflow{u: u, tasks: tasks}.reject(ctx, reviewer, submissionID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Ваша отправка по заданию «%s» отклонена", submission.TaskTitle)
		return u.notify(ctx, submission.WorkerID, msg, routeSubmissions)
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// RequestWithdrawal списывает монеты исполнителя и создаёт заявку на выплату.
func (s *EscrowService) RequestWithdrawal(ctx context.Context, p models.Principal, in WithdrawalInput) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest
	err := s.run(ctx, "request_withdrawal", func(ctx context.Context, u *unit) error {
		worker, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		request, err = withdrawalWorkflow{u: u, policy: s.policy}.request(ctx, worker, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithOperation("request_withdrawal").WithFields(map[string]interface{}{
		"withdrawal_id": request.ID,
		"worker_id":     request.WorkerID,
		"coins":         request.WithdrawalCoin,
		"amount":        request.WithdrawalAmount.String(),
	}).Info("withdrawal requested")
	return request, nil
}

// ApproveWithdrawal отмечает выплату выполненной. Баланс не меняется.
func (s *EscrowService) ApproveWithdrawal(ctx context.Context, p models.Principal, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest
	err := s.run(ctx, "approve_withdrawal", func(ctx context.Context, u *unit) error {
		admin, err := u.actor(ctx, p)
		if err != nil {
			return err
		}
		request, err = withdrawalWorkflow{u: u, policy: s.policy}.approve(ctx, admin, requestID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Выплата %s по заявке на %d монет отправлена", request.WithdrawalAmount.StringFixed(2), request.WithdrawalCoin)
		return u.notify(ctx, request.WorkerID, msg, routeWithdrawals)
	})
	if err != nil {
		return nil, err
	}

	logger.WithOperation("approve_withdrawal").WithFields(map[string]interface{}{
		"withdrawal_id": request.ID,
		"worker_id":     request.WorkerID,
	}).Info("withdrawal approved")
	return request, nil
}

// normalizePage приводит пагинацию к допустимым значениям.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// reader возвращает репозитории для чтения и вызывающего.
func (s *EscrowService) reader(ctx context.Context, p models.Principal) (repository.Repositories, *models.User, error) {
	repos := s.store.Repos()
	user, err := resolveActor(ctx, repos.Users, p)
	if err != nil {
		return repos, nil, err
	}
	return repos, user, nil
}

// Balance возвращает баланс вызывающего.
func (s *EscrowService) Balance(ctx context.Context, p models.Principal) (int64, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return 0, err
	}
	return newLedger(repos.Ledger).balance(ctx, user.ID)
}

// ListLedgerEntries возвращает журнал монет вызывающего.
func (s *EscrowService) ListLedgerEntries(ctx context.Context, p models.Principal, limit, offset int) ([]models.LedgerEntry, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	entries, err := repos.Ledger.ListEntries(ctx, user.ID, limit, offset)
	return entries, storeError(err, nil)
}

// GetTask возвращает задание.
func (s *EscrowService) GetTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.store.Repos().Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}
	return task, nil
}

// ListOpenTasks возвращает задания со свободными местами.
func (s *EscrowService) ListOpenTasks(ctx context.Context, limit, offset int) ([]models.Task, error) {
	limit, offset = normalizePage(limit, offset)
	tasks, err := s.store.Repos().Tasks.ListOpen(ctx, limit, offset)
	return tasks, storeError(err, nil)
}

// ListAllTasks возвращает все задания, включая заполненные. Только для администратора.
func (s *EscrowService) ListAllTasks(ctx context.Context, p models.Principal, limit, offset int) ([]models.Task, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	if user.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	limit, offset = normalizePage(limit, offset)
	tasks, err := repos.Tasks.ListAll(ctx, limit, offset)
	return tasks, storeError(err, nil)
}

// ListBuyerTasks возвращает задания вызывающего покупателя.
func (s *EscrowService) ListBuyerTasks(ctx context.Context, p models.Principal, limit, offset int) ([]models.Task, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	tasks, err := repos.Tasks.ListByBuyer(ctx, user.ID, limit, offset)
	return tasks, storeError(err, nil)
}

// ListWorkerSubmissions возвращает отправки вызывающего исполнителя.
func (s *EscrowService) ListWorkerSubmissions(ctx context.Context, p models.Principal, limit, offset int) ([]models.Submission, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	items, err := repos.Submissions.ListByWorker(ctx, user.ID, limit, offset)
	return items, storeError(err, nil)
}

// ListPendingReviews возвращает отправки, ждущие решения вызывающего покупателя.
func (s *EscrowService) ListPendingReviews(ctx context.Context, p models.Principal, limit, offset int) ([]models.Submission, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	items, err := repos.Submissions.ListPendingByBuyer(ctx, user.ID, limit, offset)
	return items, storeError(err, nil)
}

// ListTaskSubmissions возвращает отправки по заданию владельцу или администратору.
func (s *EscrowService) ListTaskSubmissions(ctx context.Context, p models.Principal, taskID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	task, err := repos.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, storeError(err, apperror.ErrTaskNotFound)
	}
	if task.BuyerID != user.ID && user.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	limit, offset = normalizePage(limit, offset)
	items, err := repos.Submissions.ListByTask(ctx, taskID, limit, offset)
	return items, storeError(err, nil)
}

// ListWorkerWithdrawals возвращает заявки вызывающего исполнителя.
func (s *EscrowService) ListWorkerWithdrawals(ctx context.Context, p models.Principal, limit, offset int) ([]models.WithdrawalRequest, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	items, err := repos.Withdrawals.ListByWorker(ctx, user.ID, limit, offset)
	return items, storeError(err, nil)
}

// ListPendingWithdrawals: очередь выплат для администратора.
func (s *EscrowService) ListPendingWithdrawals(ctx context.Context, p models.Principal, limit, offset int) ([]models.WithdrawalRequest, error) {
	repos, user, err := s.reader(ctx, p)
	if err != nil {
		return nil, err
	}
	if user.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	limit, offset = normalizePage(limit, offset)
	items, err := repos.Withdrawals.ListPending(ctx, limit, offset)
	return items, storeError(err, nil)
}

// Policy возвращает действующую политику площадки.
func (s *EscrowService) Policy() Policy {
	return s.policy
}
