package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
)

// Submission: попытка исполнителя выполнить задание. Название, оплата и покупатель
// копируются из задания в момент отправки и дальше не меняются.
type Submission struct {
	ID            uuid.UUID                    `db:"id" json:"id"`
	TaskID        uuid.UUID                    `db:"task_id" json:"task_id"`
	TaskTitle     string                       `db:"task_title" json:"task_title"`
	PayableAmount int64                        `db:"payable_amount" json:"payable_amount"`
	BuyerID       uuid.UUID                    `db:"buyer_id" json:"buyer_id"`
	WorkerID      uuid.UUID                    `db:"worker_id" json:"worker_id"`
	Details       string                       `db:"details" json:"details"`
	Status        valueobject.SubmissionStatus `db:"status" json:"status"`
	CreatedAt     time.Time                    `db:"created_at" json:"created_at"`
	ReviewedAt    *time.Time                   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID                   `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

// IsPending сообщает, ждёт ли отправка решения.
func (s *Submission) IsPending() bool {
	return s.Status == valueobject.SubmissionStatusPending
}
