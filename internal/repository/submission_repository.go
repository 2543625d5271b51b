package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// PgSubmissionRepository отвечает за таблицу submissions.
type PgSubmissionRepository struct {
	db common.DBTX
}

// NewSubmissionRepository создаёт экземпляр репозитория.
func NewSubmissionRepository(db common.DBTX) *PgSubmissionRepository {
	return &PgSubmissionRepository{db: db}
}

// Create сохраняет отправку со статусом pending.
func (r *PgSubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Status = valueobject.SubmissionStatusPending

	query := `
		INSERT INTO submissions (id, task_id, task_title, payable_amount, buyer_id, worker_id, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		s.ID, s.TaskID, s.TaskTitle, s.PayableAmount, s.BuyerID, s.WorkerID, s.Details, s.Status,
	).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("submission repository: create %w", err)
	}
	return nil
}

// GetByID возвращает отправку.
func (r *PgSubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	s, err := common.GetByID[models.Submission](ctx, r.db, "submissions", id, common.ErrNotFound)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("submission repository: get by id %w", err)
	}
	return s, nil
}

// Transition переводит отправку из pending в терминальный статус.
// Если отправка уже решена, возвращает ErrNotPending.
func (r *PgSubmissionRepository) Transition(ctx context.Context, id uuid.UUID, to valueobject.SubmissionStatus, reviewerID uuid.UUID) (*models.Submission, error) {
	var s models.Submission
	err := sqlx.GetContext(ctx, r.db, &s, `
		UPDATE submissions SET status = $2, reviewed_at = NOW(), reviewed_by = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, to, reviewerID)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission repository: transition %w", err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("submission repository: transition check %w", err)
	}
	if !exists {
		return nil, common.ErrNotFound
	}
	return nil, common.ErrNotPending
}

// RejectPendingByTask отклоняет все ожидающие отправки задания.
func (r *PgSubmissionRepository) RejectPendingByTask(ctx context.Context, taskID uuid.UUID, reviewerID uuid.UUID) ([]models.Submission, error) {
	rejected, err := common.SelectPage[models.Submission](ctx, r.db, `
		UPDATE submissions SET status = 'rejected', reviewed_at = NOW(), reviewed_by = $2
		WHERE task_id = $1 AND status = 'pending'
		RETURNING *
	`, taskID, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("submission repository: reject pending by task %w", err)
	}
	return rejected, nil
}

// ListByWorker возвращает отправки исполнителя.
func (r *PgSubmissionRepository) ListByWorker(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	items, err := common.SelectPage[models.Submission](ctx, r.db, `
		SELECT * FROM submissions WHERE worker_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, workerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("submission repository: list by worker %w", err)
	}
	return items, nil
}

// ListPendingByBuyer возвращает отправки, ждущие решения покупателя.
func (r *PgSubmissionRepository) ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	items, err := common.SelectPage[models.Submission](ctx, r.db, `
		SELECT * FROM submissions WHERE buyer_id = $1 AND status = 'pending'
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("submission repository: list pending by buyer %w", err)
	}
	return items, nil
}

// ListByTask возвращает отправки по заданию.
func (r *PgSubmissionRepository) ListByTask(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	items, err := common.SelectPage[models.Submission](ctx, r.db, `
		SELECT * FROM submissions WHERE task_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, taskID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("submission repository: list by task %w", err)
	}
	return items, nil
}
