package service

import (
	"errors"

	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// storeError переводит ошибки репозиториев в ошибки приложения.
// notFound: какую ошибку вернуть, если запись не найдена.
func storeError(err error, notFound *apperror.AppError) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, common.ErrNotFound):
		if notFound == nil {
			return apperror.New(apperror.ErrCodeNotFound, "запись не найдена")
		}
		return notFound
	case errors.Is(err, common.ErrInsufficientBalance):
		return apperror.ErrInsufficientBalance
	case errors.Is(err, common.ErrNoSlots):
		return apperror.ErrNoSlotsAvailable
	case errors.Is(err, common.ErrNotPending), errors.Is(err, common.ErrAlreadyExists):
		return apperror.ErrConflict
	case errors.Is(err, common.ErrInvalidInput):
		return apperror.ErrInvalidArgument
	}

	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища")
}

// invalid: ошибка INVALID_ARGUMENT с текстом проверки.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
}

// statusOf возвращает метку результата для метрик.
func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	return string(apperror.CodeOf(err))
}
