package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: api.GET("/tasks/:id", UUIDValidator("id"), h.GetTask)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			abortWith(c, apperror.New(apperror.ErrCodeInvalidArgument, "параметр "+paramName+" должен быть валидным UUID"))
			return
		}
		c.Next()
	}
}
