package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification: запись для UI-слоя о смене состояния. Доставкой ядро не занимается.
type Notification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Message     string    `db:"message" json:"message"`
	ActionRoute string    `db:"action_route" json:"action_route"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
