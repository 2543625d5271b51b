package valueobject

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

// Coins: целое неотрицательное количество монет.
type Coins int64

func NewCoins(amount int64) (Coins, error) {
	if amount <= 0 {
		return 0, apperror.New(apperror.ErrCodeInvalidArgument, "количество монет должно быть положительным")
	}
	return Coins(amount), nil
}

// EscrowTotal считает payable × workers и отказывает при переполнении int64.
func EscrowTotal(payableAmount, requiredWorkers int64) (int64, error) {
	if payableAmount <= 0 || requiredWorkers <= 0 {
		return 0, apperror.New(apperror.ErrCodeInvalidArgument, "стоимость и количество исполнителей должны быть положительными")
	}
	if payableAmount > math.MaxInt64/requiredWorkers {
		return 0, apperror.New(apperror.ErrCodeInvalidArgument, "слишком большая сумма задания")
	}
	return payableAmount * requiredWorkers, nil
}

// ExchangeRate: сколько монет стоит одна денежная единица.
type ExchangeRate struct {
	CoinsPerUnit int64
}

func NewExchangeRate(coinsPerUnit int64) (ExchangeRate, error) {
	if coinsPerUnit <= 0 {
		return ExchangeRate{}, apperror.New(apperror.ErrCodeInvalidArgument, "курс обмена должен быть положительным")
	}
	return ExchangeRate{CoinsPerUnit: coinsPerUnit}, nil
}

// Payout переводит монеты в денежную сумму с округлением до центов.
func (r ExchangeRate) Payout(coins Coins) decimal.Decimal {
	return decimal.NewFromInt(int64(coins)).
		DivRound(decimal.NewFromInt(r.CoinsPerUnit), 2)
}
