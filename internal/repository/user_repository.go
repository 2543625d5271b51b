package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// PgUserRepository отвечает за работу с таблицей users.
type PgUserRepository struct {
	db common.DBTX
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db common.DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// Create создаёт нового пользователя. Повторная регистрация того же id даёт ErrAlreadyExists.
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, email, display_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.ID, user.Email, user.DisplayName, user.Role, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := common.GetByID[models.User](ctx, r.db, "users", id, common.ErrNotFound)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return user, nil
}

// List возвращает пользователей вместе с балансами.
func (r *PgUserRepository) List(ctx context.Context, limit, offset int) ([]models.UserWithBalance, error) {
	query := `
		SELECT u.id, u.email, u.display_name, u.role, u.is_active, u.created_at, u.updated_at,
		       COALESCE(b.balance, 0) AS balance
		FROM users u
		LEFT JOIN coin_balances b ON b.user_id = u.id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`
	users, err := common.SelectPage[models.UserWithBalance](ctx, r.db, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user repository: list %w", err)
	}
	return users, nil
}

// UpdateRole меняет роль пользователя.
func (r *PgUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role valueobject.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("user repository: update role %w", err)
	}
	return common.ExpectOneRow(res, common.ErrNotFound)
}

// Deactivate выключает пользователя. Записи пользователей не удаляются.
func (r *PgUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: deactivate %w", err)
	}
	return common.ExpectOneRow(res, common.ErrNotFound)
}
