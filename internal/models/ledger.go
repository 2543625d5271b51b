package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntry: запись журнала изменения баланса. Amount со знаком:
// положительный для начисления, отрицательный для списания.
type LedgerEntry struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Kind         string     `db:"kind" json:"kind"`
	Amount       int64      `db:"amount" json:"amount"`
	BalanceAfter int64      `db:"balance_after" json:"balance_after"`
	ReferenceID  *uuid.UUID `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// LedgerSnapshot: агрегаты для проверки сохранения монет.
type LedgerSnapshot struct {
	TotalBalances       int64     `db:"total_balances" json:"total_balances"`
	OutstandingEscrow   int64     `db:"outstanding_escrow" json:"outstanding_escrow"`
	PendingWithdrawals  int64     `db:"pending_withdrawals" json:"pending_withdrawals"`
	ApprovedWithdrawals int64     `db:"approved_withdrawals" json:"approved_withdrawals"`
	ExternalCredits     int64     `db:"external_credits" json:"external_credits"`
	TakenAt             time.Time `db:"taken_at" json:"taken_at"`
}

// Held: монеты, которые находятся внутри системы.
func (s LedgerSnapshot) Held() int64 {
	return s.TotalBalances + s.OutstandingEscrow + s.PendingWithdrawals + s.ApprovedWithdrawals
}

// Drift: расхождение между монетами в системе и внешними поступлениями.
func (s LedgerSnapshot) Drift() int64 {
	return s.Held() - s.ExternalCredits
}
