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

// PgLedgerRepository отвечает за coin_balances и coin_ledger_entries.
type PgLedgerRepository struct {
	db common.DBTX
}

// NewLedgerRepository создаёт экземпляр репозитория.
func NewLedgerRepository(db common.DBTX) *PgLedgerRepository {
	return &PgLedgerRepository{db: db}
}

// OpenAccount заводит нулевой баланс пользователя.
func (r *PgLedgerRepository) OpenAccount(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO coin_balances (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return fmt.Errorf("ledger repository: open account %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс.
func (r *PgLedgerRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	if err := sqlx.GetContext(ctx, r.db, &balance, `SELECT balance FROM coin_balances WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return balance, nil
}

// Credit начисляет amount и пишет запись в журнал.
func (r *PgLedgerRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64, kind string, referenceID *uuid.UUID) (*models.LedgerEntry, error) {
	var balance int64
	err := sqlx.GetContext(ctx, r.db, &balance, `
		UPDATE coin_balances SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ledger repository: credit %w", err)
	}

	return r.appendEntry(ctx, userID, kind, amount, balance, referenceID)
}

// Debit списывает amount одним охраняемым UPDATE. Баланс не уходит в минус.
func (r *PgLedgerRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64, kind string, referenceID *uuid.UUID) (*models.LedgerEntry, error) {
	var balance int64
	err := sqlx.GetContext(ctx, r.db, &balance, `
		UPDATE coin_balances SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`, userID, amount)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ledger repository: debit %w", err)
		}

		var exists bool
		if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM coin_balances WHERE user_id = $1)`, userID); err != nil {
			return nil, fmt.Errorf("ledger repository: debit check account %w", err)
		}
		if !exists {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInsufficientBalance
	}

	return r.appendEntry(ctx, userID, kind, -amount, balance, referenceID)
}

func (r *PgLedgerRepository) appendEntry(ctx context.Context, userID uuid.UUID, kind string, amount, balanceAfter int64, referenceID *uuid.UUID) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{
		ID:           uuid.New(),
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		ReferenceID:  referenceID,
	}

	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO coin_ledger_entries (id, user_id, kind, amount, balance_after, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, entry.ID, entry.UserID, entry.Kind, entry.Amount, entry.BalanceAfter, entry.ReferenceID).Scan(&entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("ledger repository: append entry %w", err)
	}

	return entry, nil
}

// ListEntries возвращает журнал пользователя, новые записи первыми.
func (r *PgLedgerRepository) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	entries, err := common.SelectPage[models.LedgerEntry](ctx, r.db, `
		SELECT * FROM coin_ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list entries %w", err)
	}
	return entries, nil
}
