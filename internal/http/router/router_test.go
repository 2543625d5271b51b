package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/microtask-escrow/internal/config"
	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers"
	"github.com/ignatzorin/microtask-escrow/internal/http/middleware"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/memory"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

const checkoutSecret = "checkout-test-secret"

type apiFixture struct {
	t      *testing.T
	engine *gin.Engine
	tokens *service.TokenManager
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	cfg := &config.Config{
		Env:             "test",
		CheckoutSecret:  checkoutSecret,
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
	}

	store := memory.NewStore()
	policy := service.DefaultPolicy()
	tokens := service.NewTokenManager("router-test-secret")
	escrow := service.NewEscrowService(store, policy)
	users := service.NewUserService(store, policy)

	engine := SetupRouter(cfg, tokens,
		handlers.NewHealthHandler(store),
		handlers.NewUserHandler(users, escrow),
		handlers.NewTaskHandler(escrow),
		handlers.NewSubmissionHandler(escrow),
		handlers.NewWithdrawalHandler(escrow),
		handlers.NewNotificationHandler(service.NewNotificationService(store)),
		handlers.NewPurchaseHandler(service.NewPurchaseService(store)),
		handlers.NewAdminHandler(users),
	)
	return &apiFixture{t: t, engine: engine, tokens: tokens}
}

func (a *apiFixture) token(role valueobject.Role) (models.Principal, string) {
	a.t.Helper()
	p := models.Principal{UserID: uuid.New(), Role: role}
	tok, err := a.tokens.Issue(p, time.Hour)
	require.NoError(a.t, err)
	return p, tok
}

func (a *apiFixture) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *apiFixture) register(role valueobject.Role) (models.Principal, string) {
	a.t.Helper()
	p, tok := a.token(role)
	w, _ := a.do(http.MethodPost, "/api/users/register", tok, map[string]string{"display_name": "test"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return p, tok
}

func dueDate() string {
	return time.Now().Add(72 * time.Hour).Format(time.RFC3339)
}

func TestRouter_FullTaskLifecycle(t *testing.T) {
	api := newAPI(t)
	buyer, buyerTok := api.register(valueobject.RoleBuyer)
	_, workerTok := api.register(valueobject.RoleWorker)

	w, body := api.do(http.MethodGet, "/api/me/balance", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 50, body["balance"])

	purchase := map[string]interface{}{
		"buyer_id":           buyer.UserID.String(),
		"coins":              1000,
		"amount_paid":        "50.00",
		"provider_reference": "cs_live_1",
	}
	w, _ = api.do(http.MethodPost, "/internal/purchases", "", purchase)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = api.do(http.MethodPost, "/internal/purchases", "", purchase, middleware.CheckoutSecretHeader, checkoutSecret)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["created"])

	w, body = api.do(http.MethodPost, "/internal/purchases", "", purchase, middleware.CheckoutSecretHeader, checkoutSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["created"])

	w, body = api.do(http.MethodPost, "/api/tasks", buyerTok, map[string]interface{}{
		"title":            "Подписаться на канал",
		"detail":           "Подписаться и прислать скриншот",
		"payable_amount":   10,
		"required_workers": 100,
		"completion_date":  dueDate(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	taskID := body["id"].(string)

	w, body = api.do(http.MethodPost, "/api/tasks", buyerTok, map[string]interface{}{
		"title":            "Слишком дорого",
		"detail":           "Не хватит монет",
		"payable_amount":   100,
		"required_workers": 100,
		"completion_date":  dueDate(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", body["code"])

	w, body = api.do(http.MethodPost, "/api/tasks/"+taskID+"/submissions", workerTok, map[string]string{"details": "готово"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submissionID := body["id"].(string)

	w, body = api.do(http.MethodGet, "/api/submissions/review", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 1)

	w, _ = api.do(http.MethodPost, "/api/submissions/"+submissionID+"/approve", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = api.do(http.MethodPost, "/api/submissions/"+submissionID+"/approve", buyerTok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", body["code"])

	w, body = api.do(http.MethodGet, "/api/me/balance", workerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 20, body["balance"])

	w, body = api.do(http.MethodGet, "/api/tasks/"+taskID, "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = api.do(http.MethodGet, "/api/tasks/"+taskID, buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 99, body["required_workers"])

	w, body = api.do(http.MethodDelete, "/api/tasks/"+taskID, buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 990, body["refund"])

	w, body = api.do(http.MethodGet, "/api/notifications", workerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["unread"])
}

func TestRouter_WithdrawalFlow(t *testing.T) {
	api := newAPI(t)
	_, workerTok := api.register(valueobject.RoleWorker)
	_, adminTok := api.register(valueobject.RoleAdmin)

	w, body := api.do(http.MethodPost, "/api/withdrawals", workerTok, map[string]interface{}{
		"withdrawal_coin":   100,
		"payment_system":    "stripe",
		"account_reference": "acct_1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "BELOW_MINIMUM", body["code"])

	w, body = api.do(http.MethodPost, "/api/withdrawals", workerTok, map[string]interface{}{
		"withdrawal_coin":   200,
		"payment_system":    "stripe",
		"account_reference": "acct_1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", body["code"])

	w, _ = api.do(http.MethodGet, "/api/admin/withdrawals", workerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = api.do(http.MethodGet, "/api/admin/withdrawals", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 0)

	w, body = api.do(http.MethodPost, "/api/admin/withdrawals/"+uuid.NewString()+"/approve", adminTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_RequestValidation(t *testing.T) {
	api := newAPI(t)
	_, buyerTok := api.register(valueobject.RoleBuyer)

	w, body := api.do(http.MethodGet, "/api/tasks/not-a-uuid", buyerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])

	w, _ = api.do(http.MethodGet, "/api/me/balance", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = api.do(http.MethodPost, "/api/tasks", buyerTok, map[string]interface{}{"title": "нет оплаты"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])

	w, body = api.do(http.MethodPost, "/api/tasks", buyerTok, map[string]interface{}{
		"title":            "Без срока",
		"detail":           "Срок не указан",
		"payable_amount":   1,
		"required_workers": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])

	w, body = api.do(http.MethodPost, "/api/tasks", buyerTok, map[string]interface{}{
		"title":            "Срок прошёл",
		"detail":           "Дата в прошлом",
		"payable_amount":   1,
		"required_workers": 1,
		"completion_date":  time.Now().Add(-48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])

	_, strangerTok := api.token(valueobject.RoleBuyer)
	w, body = api.do(http.MethodGet, "/api/me/balance", strangerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	w, _ = api.do(http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminListsFilledTasks(t *testing.T) {
	api := newAPI(t)
	_, buyerTok := api.register(valueobject.RoleBuyer)
	_, workerTok := api.register(valueobject.RoleWorker)
	_, adminTok := api.register(valueobject.RoleAdmin)

	w, body := api.do(http.MethodPost, "/api/tasks", buyerTok, map[string]interface{}{
		"title":            "Одно место",
		"detail":           "Поставить лайк",
		"payable_amount":   5,
		"required_workers": 1,
		"completion_date":  dueDate(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	taskID := body["id"].(string)

	w, body = api.do(http.MethodPost, "/api/tasks/"+taskID+"/submissions", workerTok, map[string]string{"details": "готово"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = api.do(http.MethodPost, "/api/submissions/"+body["id"].(string)+"/approve", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = api.do(http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 0)

	w, _ = api.do(http.MethodGet, "/api/admin/tasks", buyerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = api.do(http.MethodGet, "/api/admin/tasks", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, taskID, items[0].(map[string]interface{})["id"])

	w, body = api.do(http.MethodDelete, "/api/tasks/"+taskID, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, body["refund"])
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	w, body := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, _ = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "escrow_http_requests_total")
}
