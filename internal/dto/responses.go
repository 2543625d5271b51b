package dto

import (
	"github.com/ignatzorin/microtask-escrow/internal/models"
)

// BalanceResponse represents the caller's coin balance
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// ListResponse wraps a page of items with its pagination parameters
type ListResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// NewListResponse creates a ListResponse
func NewListResponse(items interface{}, limit, offset int) ListResponse {
	return ListResponse{Items: items, Limit: limit, Offset: offset}
}

// NotificationsResponse represents the caller's notifications with unread count
type NotificationsResponse struct {
	Items  []models.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

// DeleteTaskResponse represents the outcome of a task deletion
type DeleteTaskResponse struct {
	TaskID   string `json:"task_id"`
	Refund   int64  `json:"refund"`
	Rejected int    `json:"rejected_submissions"`
}

// PurchaseResponse represents a recorded purchase and whether it was new
type PurchaseResponse struct {
	Purchase *models.CoinPurchase `json:"purchase"`
	Created  bool                 `json:"created"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
