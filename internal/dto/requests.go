package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterRequest represents the request to register the token holder
type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// CreateTaskRequest represents the request to publish a task
type CreateTaskRequest struct {
	Title           string    `json:"title" binding:"required"`
	Detail          string    `json:"detail" binding:"required"`
	PayableAmount   int64     `json:"payable_amount" binding:"required"`
	RequiredWorkers int64     `json:"required_workers" binding:"required"`
	CompletionDate  time.Time `json:"completion_date" binding:"required"`
	SubmissionInfo  string    `json:"submission_info"`
	ImageURL        *string   `json:"image_url"`
}

// UpdateTaskRequest represents a partial task update.
// PayableAmount and RequiredWorkers are accepted only to be refused.
type UpdateTaskRequest struct {
	Title           *string    `json:"title"`
	Detail          *string    `json:"detail"`
	SubmissionInfo  *string    `json:"submission_info"`
	CompletionDate  *time.Time `json:"completion_date"`
	ImageURL        *string    `json:"image_url"`
	PayableAmount   *int64     `json:"payable_amount"`
	RequiredWorkers *int64     `json:"required_workers"`
}

// SubmitRequest represents a worker submission
type SubmitRequest struct {
	Details string `json:"details" binding:"required"`
}

// WithdrawalRequest represents a cash-out request
type WithdrawalRequest struct {
	Coins            int64  `json:"withdrawal_coin" binding:"required"`
	PaymentSystem    string `json:"payment_system" binding:"required"`
	AccountReference string `json:"account_reference" binding:"required"`
}

// ChangeRoleRequest represents an admin role change
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// PurchaseRequest represents a completed checkout reported by the payment collaborator
type PurchaseRequest struct {
	BuyerID           string          `json:"buyer_id" binding:"required"`
	Coins             int64           `json:"coins" binding:"required"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	ProviderReference string          `json:"provider_reference" binding:"required"`
}
