package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

var errTooManyRequests = &apperror.AppError{
	Code:       "RATE_LIMITED",
	Message:    "слишком много запросов, попробуйте позже",
	HTTPStatus: http.StatusTooManyRequests,
}

// RateLimitMiddleware ограничивает изменяющие запросы. Ключ: вызывающий, если он
// известен, иначе IP. По умолчанию 60 запросов в минуту.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 60
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := c.ClientIP()
		if p, ok := Principal(c); ok {
			key = p.UserID.String()
		}

		lctx, err := instance.Get(c, key)
		if err != nil {
			abortWith(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			abortWith(c, errTooManyRequests)
			return
		}

		c.Next()
	}
}
