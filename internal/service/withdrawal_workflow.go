package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/validation"
)

// WithdrawalInput: параметры заявки на вывод.
type WithdrawalInput struct {
	Coins            int64
	PaymentSystem    string
	AccountReference string
}

// withdrawalWorkflow: монеты списываются при создании заявки, одобрение журнал не трогает.
// Отклонения нет; если оно понадобится, оно должно вернуть монеты исполнителю.
type withdrawalWorkflow struct {
	u      *unit
	policy Policy
}

func (w withdrawalWorkflow) request(ctx context.Context, worker *models.User, in WithdrawalInput) (*models.WithdrawalRequest, error) {
	if worker.Role != valueobject.RoleWorker {
		return nil, apperror.New(apperror.ErrCodeForbidden, "выводить монеты может только исполнитель")
	}
	if in.Coins <= 0 {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "сумма вывода должна быть положительной")
	}
	if in.Coins < w.policy.MinWithdrawalCoins {
		return nil, apperror.ErrBelowMinimum
	}
	if err := validation.ValidatePayoutTarget(in.PaymentSystem, in.AccountReference); err != nil {
		return nil, invalid(err)
	}

	request := &models.WithdrawalRequest{
		ID:               uuid.New(),
		WorkerID:         worker.ID,
		WithdrawalCoin:   in.Coins,
		WithdrawalAmount: w.policy.Rate.Payout(valueobject.Coins(in.Coins)),
		PaymentSystem:    in.PaymentSystem,
		AccountReference: in.AccountReference,
	}

	if _, err := w.u.ledger.debit(ctx, worker.ID, in.Coins, models.LedgerKindWithdrawalHold, &request.ID); err != nil {
		return nil, err
	}
	if err := w.u.repos.Withdrawals.Create(ctx, request); err != nil {
		return nil, storeError(err, nil)
	}
	return request, nil
}

func (w withdrawalWorkflow) approve(ctx context.Context, admin *models.User, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	if admin.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	approved, err := w.u.repos.Withdrawals.Approve(ctx, requestID, admin.ID)
	if err != nil {
		return nil, storeError(err, apperror.ErrWithdrawalNotFound)
	}
	return approved, nil
}
