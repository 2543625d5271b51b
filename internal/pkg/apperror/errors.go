package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	ErrCodeDatabaseError       ErrorCode = "DATABASE_ERROR"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeNoSlotsAvailable    ErrorCode = "NO_SLOTS_AVAILABLE"
	ErrCodeTaskClosed          ErrorCode = "TASK_CLOSED"
	ErrCodeBelowMinimum        ErrorCode = "BELOW_MINIMUM"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, поэтому errors.Is(err, ErrConflict)
// срабатывает для любого конфликта независимо от текста.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeNoSlotsAvailable, ErrCodeTaskClosed:
		return http.StatusConflict
	case ErrCodeInsufficientBalance, ErrCodeBelowMinimum:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или ErrCodeInternal для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsInvalidArgument(err error) bool {
	return CodeOf(err) == ErrCodeInvalidArgument
}

var (
	ErrTaskNotFound        = New(ErrCodeNotFound, "задание не найдено")
	ErrSubmissionNotFound  = New(ErrCodeNotFound, "отправка не найдена")
	ErrWithdrawalNotFound  = New(ErrCodeNotFound, "заявка на вывод не найдена")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrConflict            = New(ErrCodeConflict, "запись уже обработана")
	ErrInsufficientBalance = New(ErrCodeInsufficientBalance, "недостаточно монет на балансе")
	ErrNoSlotsAvailable    = New(ErrCodeNoSlotsAvailable, "свободных мест в задании не осталось")
	ErrTaskClosed          = New(ErrCodeTaskClosed, "задание закрыто для новых отправок")
	ErrBelowMinimum        = New(ErrCodeBelowMinimum, "сумма вывода ниже минимальной")
	ErrInvalidArgument     = New(ErrCodeInvalidArgument, "некорректные параметры")
)
