package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := New(ErrCodeConflict, "отправка уже одобрена")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNoSlotsAvailable))

	wrapped := fmt.Errorf("approve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))
}

func TestAppError_HTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeNotFound:            http.StatusNotFound,
		ErrCodeForbidden:           http.StatusForbidden,
		ErrCodeInvalidArgument:     http.StatusBadRequest,
		ErrCodeConflict:            http.StatusConflict,
		ErrCodeNoSlotsAvailable:    http.StatusConflict,
		ErrCodeTaskClosed:          http.StatusConflict,
		ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
		ErrCodeBelowMinimum:        http.StatusUnprocessableEntity,
		ErrCodeDatabaseError:       http.StatusInternalServerError,
	}

	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, string(code))
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrCodeDatabaseError, "не удалось сохранить задание")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeDatabaseError, CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCodeOf_UnknownError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))
	assert.True(t, IsNotFound(ErrTaskNotFound))
	assert.True(t, IsForbidden(ErrForbidden))
	assert.True(t, IsInvalidArgument(ErrInvalidArgument))
}
