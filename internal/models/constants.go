package models

// Типы записей в журнале монет.
const (
	LedgerKindSignupBonus    = "signup_bonus"
	LedgerKindPurchase       = "purchase"
	LedgerKindEscrowHold     = "escrow_hold"
	LedgerKindEscrowRefund   = "escrow_refund"
	LedgerKindTaskPayout     = "task_payout"
	LedgerKindWithdrawalHold = "withdrawal_hold"
)

// ValidLedgerKinds список допустимых типов записей журнала
var ValidLedgerKinds = map[string]struct{}{
	LedgerKindSignupBonus:    {},
	LedgerKindPurchase:       {},
	LedgerKindEscrowHold:     {},
	LedgerKindEscrowRefund:   {},
	LedgerKindTaskPayout:     {},
	LedgerKindWithdrawalHold: {},
}

// ExternalCreditKinds: поступления извне ядра, единственный источник новых монет.
var ExternalCreditKinds = []string{LedgerKindSignupBonus, LedgerKindPurchase}
