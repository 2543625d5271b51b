package models

import (
	"time"

	"github.com/google/uuid"
)

// Task: платное задание покупателя. RequiredWorkers: оставшиеся свободные места,
// эскроу задания всегда равно PayableAmount × RequiredWorkers.
type Task struct {
	ID              uuid.UUID `db:"id" json:"id"`
	BuyerID         uuid.UUID `db:"buyer_id" json:"buyer_id"`
	Title           string    `db:"title" json:"title"`
	Detail          string    `db:"detail" json:"detail"`
	PayableAmount   int64     `db:"payable_amount" json:"payable_amount"`
	RequiredWorkers int64     `db:"required_workers" json:"required_workers"`
	CompletionDate  time.Time `db:"completion_date" json:"completion_date"`
	SubmissionInfo  string    `db:"submission_info" json:"submission_info"`
	ImageURL        *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// RemainingEscrow возвращает ещё не выплаченную часть эскроу.
func (t *Task) RemainingEscrow() int64 {
	return t.PayableAmount * t.RequiredWorkers
}

// IsOpen сообщает, принимает ли задание новые отправки.
func (t *Task) IsOpen() bool {
	return t.RequiredWorkers > 0
}

// TaskUpdate: изменяемые поля задания. Оплата и число мест через него не меняются.
type TaskUpdate struct {
	Title          *string
	Detail         *string
	SubmissionInfo *string
	CompletionDate *time.Time
	ImageURL       *string
}

// IsEmpty сообщает, что обновлять нечего.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Detail == nil && u.SubmissionInfo == nil &&
		u.CompletionDate == nil && u.ImageURL == nil
}

// Apply переносит заданные поля на задание.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Detail != nil {
		t.Detail = *u.Detail
	}
	if u.SubmissionInfo != nil {
		t.SubmissionInfo = *u.SubmissionInfo
	}
	if u.CompletionDate != nil {
		t.CompletionDate = *u.CompletionDate
	}
	if u.ImageURL != nil {
		t.ImageURL = u.ImageURL
	}
}
