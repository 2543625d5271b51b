package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextPrincipalKey = "principal"
)

// CheckoutSecretHeader: заголовок, которым checkout-провайдер подтверждает вызов.
const CheckoutSecretHeader = "X-Checkout-Secret"

// AuthMiddleware проверяет JWT access токен провайдера идентификации.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		principal, err := tokens.ParseAccess(raw)
		if err != nil || principal.UserID == uuid.Nil {
			abortWith(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// CheckoutSecretMiddleware пускает только вызовы с общим секретом checkout-провайдера.
func CheckoutSecretMiddleware(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(CheckoutSecretHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// Principal достаёт вызывающего, положенного AuthMiddleware.
func Principal(c *gin.Context) (models.Principal, bool) {
	raw, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return models.Principal{}, false
	}
	p, ok := raw.(models.Principal)
	return p, ok
}

func abortWith(c *gin.Context, err *apperror.AppError) {
	status := err.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Message, "code": err.Code})
}
