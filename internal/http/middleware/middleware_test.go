package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_SetsPrincipal(t *testing.T) {
	tokens := service.NewTokenManager("mw-secret")
	want := models.Principal{UserID: uuid.New(), Role: valueobject.RoleBuyer}
	tok, err := tokens.Issue(want, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		p, ok := Principal(c)
		require.True(t, ok)
		assert.Equal(t, want, p)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok+"x")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestCheckoutSecretMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/internal/purchases", CheckoutSecretMiddleware("s3cret"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/purchases", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/purchases", nil)
	req.Header.Set(CheckoutSecretHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/purchases", nil)
	req.Header.Set(CheckoutSecretHeader, "s3cret")
	assert.Equal(t, http.StatusCreated, serve(r, req).Code)
}

func TestErrorHandler_MapsCodes(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/slots", func(c *gin.Context) { _ = c.Error(apperror.ErrNoSlotsAvailable) })
	r.GET("/db", func(c *gin.Context) {
		_ = c.Error(apperror.Wrap(errors.New("pq: connection reset"), apperror.ErrCodeDatabaseError, "ошибка хранилища"))
	})
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/slots", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "NO_SLOTS_AVAILABLE")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/db", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.Contains(t, w.Body.String(), "DATABASE_ERROR")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/tasks", RateLimitMiddleware(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/tasks", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodPost, "/tasks", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestUUIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/tasks/:id", UUIDValidator("id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/tasks/abc", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil)).Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
