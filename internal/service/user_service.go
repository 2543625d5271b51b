package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
	"github.com/ignatzorin/microtask-escrow/internal/validation"
)

// RegisterInput: данные профиля, которые передаёт провайдер идентификации.
type RegisterInput struct {
	Email       string
	DisplayName string
}

// UserService регистрирует участников и даёт администратору управлять ими.
type UserService struct {
	store  repository.Store
	policy Policy
}

// NewUserService создаёт сервис пользователей.
func NewUserService(store repository.Store, policy Policy) *UserService {
	return &UserService{store: store, policy: policy}
}

// Register заводит пользователя с ролью из токена, открывает баланс и начисляет
// бонус за регистрацию. Повторная регистрация даёт CONFLICT.
func (s *UserService) Register(ctx context.Context, p models.Principal, in RegisterInput) (*models.User, error) {
	if p.UserID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if !p.Role.IsValid() {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "некорректная роль пользователя")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, invalid(err)
	}

	user := &models.User{
		ID:          p.UserID,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        p.Role,
		IsActive:    true,
	}
	bonus := s.policy.SignupBonus(p.Role)

	err := runUnit(ctx, s.store, "register_user", func(ctx context.Context, u *unit) error {
		if err := u.repos.Users.Create(ctx, user); err != nil {
			return storeError(err, nil)
		}
		if err := u.repos.Ledger.OpenAccount(ctx, user.ID); err != nil {
			return storeError(err, nil)
		}
		if bonus > 0 {
			if _, err := u.ledger.credit(ctx, user.ID, bonus, models.LedgerKindSignupBonus, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithOperation("register_user").WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
		"bonus":   bonus,
	}).Info("user registered")
	return user, nil
}

// Me возвращает вызывающего вместе с балансом.
func (s *UserService) Me(ctx context.Context, p models.Principal) (*models.UserWithBalance, error) {
	repos := s.store.Repos()
	user, err := resolveActor(ctx, repos.Users, p)
	if err != nil {
		return nil, err
	}
	balance, err := newLedger(repos.Ledger).balance(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.UserWithBalance{User: *user, Balance: balance}, nil
}

// requireAdmin проверяет, что вызывающий является активным администратором.
func requireAdmin(ctx context.Context, users repository.UserRepository, p models.Principal) (*models.User, error) {
	user, err := resolveActor(ctx, users, p)
	if err != nil {
		return nil, err
	}
	if user.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return user, nil
}

// ListUsers возвращает пользователей с балансами для администратора.
func (s *UserService) ListUsers(ctx context.Context, p models.Principal, limit, offset int) ([]models.UserWithBalance, error) {
	repos := s.store.Repos()
	if _, err := requireAdmin(ctx, repos.Users, p); err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	users, err := repos.Users.List(ctx, limit, offset)
	return users, storeError(err, nil)
}

var errSelfChange = apperror.New(apperror.ErrCodeInvalidArgument, "нельзя изменить собственную учётную запись")

// ChangeRole меняет роль пользователя. Балансы и эскроу не затрагиваются.
func (s *UserService) ChangeRole(ctx context.Context, p models.Principal, userID uuid.UUID, role string) (*models.User, error) {
	newRole, err := valueobject.NewRole(role)
	if err != nil {
		return nil, err
	}

	var updated *models.User
	err = runUnit(ctx, s.store, "change_role", func(ctx context.Context, u *unit) error {
		admin, err := requireAdmin(ctx, u.repos.Users, p)
		if err != nil {
			return err
		}
		if admin.ID == userID {
			return errSelfChange
		}
		if err := u.repos.Users.UpdateRole(ctx, userID, newRole); err != nil {
			return storeError(err, apperror.ErrUserNotFound)
		}
		updated, err = u.repos.Users.GetByID(ctx, userID)
		return storeError(err, apperror.ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate выключает пользователя. Удаления пользователей нет.
func (s *UserService) Deactivate(ctx context.Context, p models.Principal, userID uuid.UUID) error {
	return runUnit(ctx, s.store, "deactivate_user", func(ctx context.Context, u *unit) error {
		admin, err := requireAdmin(ctx, u.repos.Users, p)
		if err != nil {
			return err
		}
		if admin.ID == userID {
			return errSelfChange
		}
		return storeError(u.repos.Users.Deactivate(ctx, userID), apperror.ErrUserNotFound)
	})
}
