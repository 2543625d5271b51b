package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
)

// User описывает участника площадки. Баланс хранится отдельно в coin_balances.
type User struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	Email       string           `db:"email" json:"email"`
	DisplayName string           `db:"display_name" json:"display_name"`
	Role        valueobject.Role `db:"role" json:"role"`
	IsActive    bool             `db:"is_active" json:"is_active"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Principal: аутентифицированный вызывающий, полученный от провайдера идентификации.
type Principal struct {
	UserID uuid.UUID
	Role   valueobject.Role
}

// UserWithBalance используется в админском списке пользователей.
type UserWithBalance struct {
	User
	Balance int64 `db:"balance" json:"balance"`
}
