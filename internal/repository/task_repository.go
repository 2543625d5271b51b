package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// PgTaskRepository отвечает за таблицу tasks.
type PgTaskRepository struct {
	db common.DBTX
}

// NewTaskRepository создаёт экземпляр репозитория.
func NewTaskRepository(db common.DBTX) *PgTaskRepository {
	return &PgTaskRepository{db: db}
}

// Create сохраняет задание.
func (r *PgTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	query := `
		INSERT INTO tasks (id, buyer_id, title, detail, payable_amount, required_workers, completion_date, submission_info, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		task.ID, task.BuyerID, task.Title, task.Detail, task.PayableAmount, task.RequiredWorkers,
		task.CompletionDate, task.SubmissionInfo, task.ImageURL,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return fmt.Errorf("task repository: create %w", err)
	}

	return nil
}

// GetByID возвращает задание.
func (r *PgTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := common.GetByID[models.Task](ctx, r.db, "tasks", id, common.ErrNotFound)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("task repository: get by id %w", err)
	}
	return task, nil
}

// GetForUpdate возвращает задание, блокируя строку до конца транзакции.
func (r *PgTaskRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := sqlx.GetContext(ctx, r.db, &task, `SELECT * FROM tasks WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("task repository: get for update %w", err)
	}
	return &task, nil
}

// GetForShare возвращает задание под разделяемой блокировкой: удалить строку
// до конца транзакции нельзя, но другие читатели не ждут.
func (r *PgTaskRepository) GetForShare(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := sqlx.GetContext(ctx, r.db, &task, `SELECT * FROM tasks WHERE id = $1 FOR SHARE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("task repository: get for share %w", err)
	}
	return &task, nil
}

// Update сохраняет изменяемые поля. Оплата и число мест не трогаются.
func (r *PgTaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, detail = $3, submission_info = $4, completion_date = $5, image_url = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		task.ID, task.Title, task.Detail, task.SubmissionInfo, task.CompletionDate, task.ImageURL,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("task repository: update %w", err)
	}
	return nil
}

// Delete удаляет задание.
func (r *PgTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("task repository: delete %w", err)
	}
	return common.ExpectOneRow(res, common.ErrNotFound)
}

// DecrementSlot занимает одно место охраняемым UPDATE.
func (r *PgTaskRepository) DecrementSlot(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := sqlx.GetContext(ctx, r.db, &task, `
		UPDATE tasks SET required_workers = required_workers - 1, updated_at = NOW()
		WHERE id = $1 AND required_workers > 0
		RETURNING *
	`, id)
	if err == nil {
		return &task, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task repository: decrement slot %w", err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("task repository: decrement slot check %w", err)
	}
	if !exists {
		return nil, common.ErrNotFound
	}
	return nil, common.ErrNoSlots
}

// ListOpen возвращает задания со свободными местами.
func (r *PgTaskRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Task, error) {
	tasks, err := common.SelectPage[models.Task](ctx, r.db, `
		SELECT * FROM tasks
		WHERE required_workers > 0
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("task repository: list open %w", err)
	}
	return tasks, nil
}

// ListAll возвращает все задания, включая заполненные.
func (r *PgTaskRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Task, error) {
	tasks, err := common.SelectPage[models.Task](ctx, r.db, `
		SELECT * FROM tasks
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("task repository: list all %w", err)
	}
	return tasks, nil
}

// ListByBuyer возвращает задания покупателя.
func (r *PgTaskRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Task, error) {
	tasks, err := common.SelectPage[models.Task](ctx, r.db, `
		SELECT * FROM tasks
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("task repository: list by buyer %w", err)
	}
	return tasks, nil
}
