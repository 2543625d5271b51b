package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
)

// WithdrawalRequest: заявка исполнителя на вывод монет. Монеты списываются
// с баланса в момент создания заявки.
type WithdrawalRequest struct {
	ID               uuid.UUID                    `db:"id" json:"id"`
	WorkerID         uuid.UUID                    `db:"worker_id" json:"worker_id"`
	WithdrawalCoin   int64                        `db:"withdrawal_coin" json:"withdrawal_coin"`
	WithdrawalAmount decimal.Decimal              `db:"withdrawal_amount" json:"withdrawal_amount"`
	PaymentSystem    string                       `db:"payment_system" json:"payment_system"`
	AccountReference string                       `db:"account_reference" json:"account_reference"`
	Status           valueobject.WithdrawalStatus `db:"status" json:"status"`
	RequestedAt      time.Time                    `db:"requested_at" json:"requested_at"`
	ApprovedAt       *time.Time                   `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID                   `db:"approved_by" json:"approved_by,omitempty"`
}
