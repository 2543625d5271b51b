package service

import (
	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

// Policy: настраиваемые константы площадки.
type Policy struct {
	MinWithdrawalCoins int64
	Rate               valueobject.ExchangeRate
	BuyerSignupBonus   int64
	WorkerSignupBonus  int64
}

// DefaultPolicy: вывод от 200 монет, 20 монет за единицу валюты, бонусы 50 и 10.
func DefaultPolicy() Policy {
	return Policy{
		MinWithdrawalCoins: 200,
		Rate:               valueobject.ExchangeRate{CoinsPerUnit: 20},
		BuyerSignupBonus:   50,
		WorkerSignupBonus:  10,
	}
}

// NewPolicy собирает политику из настроек и проверяет её.
func NewPolicy(minWithdrawal, coinsPerUnit, buyerBonus, workerBonus int64) (Policy, error) {
	rate, err := valueobject.NewExchangeRate(coinsPerUnit)
	if err != nil {
		return Policy{}, err
	}
	if minWithdrawal <= 0 {
		return Policy{}, apperror.New(apperror.ErrCodeInvalidArgument, "минимальная сумма вывода должна быть положительной")
	}
	if buyerBonus < 0 || workerBonus < 0 {
		return Policy{}, apperror.New(apperror.ErrCodeInvalidArgument, "бонус за регистрацию не может быть отрицательным")
	}
	return Policy{
		MinWithdrawalCoins: minWithdrawal,
		Rate:               rate,
		BuyerSignupBonus:   buyerBonus,
		WorkerSignupBonus:  workerBonus,
	}, nil
}

// SignupBonus возвращает бонус для роли. Администратору бонус не положен.
func (p Policy) SignupBonus(role valueobject.Role) int64 {
	switch role {
	case valueobject.RoleBuyer:
		return p.BuyerSignupBonus
	case valueobject.RoleWorker:
		return p.WorkerSignupBonus
	}
	return 0
}
