package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoinPurchase: покупка монет, подтверждённая внешним checkout.
// ProviderReference уникален, повторный вызов с тем же значением ничего не начисляет.
type CoinPurchase struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	BuyerID           uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	Coins             int64           `db:"coins" json:"coins"`
	AmountPaid        decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	ProviderReference string          `db:"provider_reference" json:"provider_reference"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
