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

type PgWithdrawalRepository struct {
	db common.DBTX
}

func NewWithdrawalRepository(db common.DBTX) *PgWithdrawalRepository {
	return &PgWithdrawalRepository{db: db}
}

// Create сохраняет заявку. Списание монет делает вызывающий в той же транзакции.
func (r *PgWithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.Status = valueobject.WithdrawalStatusPending

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO withdrawal_requests (id, worker_id, withdrawal_coin, withdrawal_amount, payment_system, account_reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING requested_at
	`, w.ID, w.WorkerID, w.WithdrawalCoin, w.WithdrawalAmount, w.PaymentSystem, w.AccountReference, w.Status).Scan(&w.RequestedAt)
	if err != nil {
		return fmt.Errorf("withdrawal repository: create %w", err)
	}
	return nil
}

func (r *PgWithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := sqlx.GetContext(ctx, r.db, &w, `SELECT * FROM withdrawal_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: get by id %w", err)
	}
	return &w, nil
}

// Approve переводит заявку в approved, только если она ещё pending.
func (r *PgWithdrawalRepository) Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := sqlx.GetContext(ctx, r.db, &w, `
		UPDATE withdrawal_requests SET status = 'approved', approved_at = NOW(), approved_by = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, adminID)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("withdrawal repository: approve %w", err)
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, common.ErrNotPending
}

func (r *PgWithdrawalRepository) ListByWorker(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	items, err := common.SelectPage[models.WithdrawalRequest](ctx, r.db, `
		SELECT * FROM withdrawal_requests WHERE worker_id = $1 ORDER BY requested_at DESC LIMIT $2 OFFSET $3
	`, workerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by worker %w", err)
	}
	return items, nil
}

// ListPending возвращает очередь заявок для администратора, старые первыми.
func (r *PgWithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	items, err := common.SelectPage[models.WithdrawalRequest](ctx, r.db, `
		SELECT * FROM withdrawal_requests WHERE status = 'pending' ORDER BY requested_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list pending %w", err)
	}
	return items, nil
}
