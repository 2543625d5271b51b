package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Коды apperror превращаются в HTTP статус, внутренние ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Ответ уже отправлен
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		code := apperror.ErrCodeInternal
		message := "внутренняя ошибка сервера"

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			code = appErr.Code
			if appErr.HTTPStatus != 0 {
				statusCode = appErr.HTTPStatus
			}
			if statusCode < http.StatusInternalServerError {
				message = appErr.Message
			}
		}

		if statusCode >= http.StatusInternalServerError {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"code":   code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		c.JSON(statusCode, gin.H{"error": message, "code": code})
	}
}
