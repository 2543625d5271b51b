package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/dto"
	"github.com/ignatzorin/microtask-escrow/internal/http/middleware"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

// CurrentPrincipal извлекает вызывающего из контекста.
// Если его нет, в контекст кладётся UNAUTHORIZED и возвращается false.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		Fail(c, apperror.ErrUnauthorized)
		return models.Principal{}, false
	}
	return p, true
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		Fail(c, apperror.New(apperror.ErrCodeInvalidArgument, "параметр "+paramName+" должен быть валидным UUID"))
		return uuid.Nil, false
	}
	return parsed, true
}

// BindJSON разбирает тело запроса. Ошибка разбора: INVALID_ARGUMENT.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Fail(c, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, "ошибка валидации запроса: "+err.Error()))
		return false
	}
	return true
}

// Fail передаёт ошибку в ErrorHandler.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// RespondJSON sends a JSON response with the given status code and data
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondSuccess sends a standardized success response
func RespondSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: message, Data: data})
}

// RespondList sends a page of items
func RespondList(c *gin.Context, items interface{}, limit, offset int) {
	c.JSON(http.StatusOK, dto.NewListResponse(items, limit, offset))
}

// ParseIntQuery safely reads an integer query parameter with a fallback value
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination extracts limit and offset from query parameters with defaults
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
