package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
)

// NotificationService отдаёт UI-слою уведомления. Создаются они движком эскроу.
type NotificationService struct {
	store repository.Store
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(store repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

// ListNotifications возвращает уведомления вызывающего и число непрочитанных.
func (s *NotificationService) ListNotifications(ctx context.Context, p models.Principal, limit, offset int) ([]models.Notification, int, error) {
	repos := s.store.Repos()
	user, err := resolveActor(ctx, repos.Users, p)
	if err != nil {
		return nil, 0, err
	}

	limit, offset = normalizePage(limit, offset)
	items, err := repos.Notifications.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	unread, err := repos.Notifications.CountUnread(ctx, user.ID)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return items, unread, nil
}

// MarkAsRead отмечает уведомление прочитанным. Чужое уведомление: NOT_FOUND.
func (s *NotificationService) MarkAsRead(ctx context.Context, p models.Principal, id uuid.UUID) error {
	err := s.store.Repos().Notifications.MarkRead(ctx, id, p.UserID)
	return storeError(err, apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено"))
}
