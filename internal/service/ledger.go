package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
)

// ledger: хранилище балансов поверх репозитория, привязанного к транзакции.
// Записи журнала копятся в moved, метрики по ним пишутся после коммита.
type ledger struct {
	repo  repository.LedgerRepository
	moved *[]models.LedgerEntry
}

func newLedger(repo repository.LedgerRepository) ledger {
	return ledger{repo: repo, moved: new([]models.LedgerEntry)}
}

func (l ledger) credit(ctx context.Context, userID uuid.UUID, amount int64, kind string, ref *uuid.UUID) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "сумма начисления должна быть положительной")
	}
	entry, err := l.repo.Credit(ctx, userID, amount, kind, ref)
	if err != nil {
		return nil, storeError(err, apperror.ErrUserNotFound)
	}
	*l.moved = append(*l.moved, *entry)
	return entry, nil
}

// debit не даёт балансу уйти в минус: INSUFFICIENT_BALANCE и баланс без изменений.
func (l ledger) debit(ctx context.Context, userID uuid.UUID, amount int64, kind string, ref *uuid.UUID) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "сумма списания должна быть положительной")
	}
	entry, err := l.repo.Debit(ctx, userID, amount, kind, ref)
	if err != nil {
		return nil, storeError(err, apperror.ErrUserNotFound)
	}
	*l.moved = append(*l.moved, *entry)
	return entry, nil
}

func (l ledger) balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	b, err := l.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, storeError(err, apperror.ErrUserNotFound)
	}
	return b, nil
}

func (l ledger) entries() []models.LedgerEntry {
	return *l.moved
}
