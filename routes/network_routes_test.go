package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/barrim_network/controllers"
	"github.com/HSouheill/barrim_network/jobs"
	"github.com/HSouheill/barrim_network/middleware"
	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories/memory"
	"github.com/HSouheill/barrim_network/services"
	"github.com/HSouheill/barrim_network/websocket"
)

const testSecret = "test-secret"

const planBody = `{
	"ranks": [{
		"id": "gold", "name": "Gold",
		"pvRequirement": "100", "gvRequirement": "1000", "legCapPercent": "50",
		"minEligibleLevel": 1, "maxEligibleLevel": 2,
		"bonusRate": "1", "groupBonusRate": "2", "companyBonusRate": "0"
	}],
	"levelRates": [
		{"level": 1, "rate": "10"}, {"level": 2, "rate": "5"}, {"level": 3, "rate": "3"},
		{"level": 4, "rate": "2"}, {"level": 5, "rate": "1"}
	]
}`

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	store *memory.Store
	queue *jobs.MemoryQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	for _, id := range []string{"R", "M", "X"} {
		store.PutAccount(models.Account{ID: id, Role: models.AccountRoleMember, Status: models.AccountStatusActive})
	}
	engine := services.NewEngine(store.Repositories(), nil)
	queue := jobs.NewMemoryQueue()
	scheduler := jobs.NewScheduler(queue, time.Hour, 3)

	e := echo.New()
	SetupRoutes(e, testSecret, websocket.NewHub(),
		controllers.NewNetworkController(engine),
		controllers.NewNetworkAdminController(engine, scheduler, queue))
	return &testServer{t: t, e: e, store: store, queue: queue}
}

func (s *testServer) token(userID, userType string) string {
	s.t.Helper()
	token, err := middleware.GenerateJWT(testSecret, userID, userType, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) (int, models.Response) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp models.Response
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec.Code, resp
}

func TestNetworkRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.token("admin-1", middleware.UserTypeAdmin)
	staff := s.token("staff-1", middleware.UserTypeStaff)
	member := s.token("M", middleware.UserTypeMember)

	t.Run("plan", func(t *testing.T) {
		code, _ := s.do(http.MethodPut, "/api/admin/network/plan", "", planBody)
		assert.Equal(t, http.StatusUnauthorized, code)

		code, _ = s.do(http.MethodPut, "/api/admin/network/plan", staff, planBody)
		assert.Equal(t, http.StatusForbidden, code)

		code, _ = s.do(http.MethodPut, "/api/admin/network/plan", admin, `{"ranks": [], "levelRates": []}`)
		assert.Equal(t, http.StatusUnprocessableEntity, code)

		code, _ = s.do(http.MethodPut, "/api/admin/network/plan", admin, planBody)
		require.Equal(t, http.StatusOK, code)

		code, _ = s.do(http.MethodGet, "/api/admin/network/plan", staff, "")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("members", func(t *testing.T) {
		code, _ := s.do(http.MethodPost, "/api/network/members", member, `{"accountId": "R"}`)
		assert.Equal(t, http.StatusForbidden, code)

		code, _ = s.do(http.MethodPost, "/api/network/members", staff, `{"accountId": "R"}`)
		require.Equal(t, http.StatusCreated, code)
		code, _ = s.do(http.MethodPost, "/api/network/members", staff, `{"accountId": "M", "referrerId": "R"}`)
		require.Equal(t, http.StatusCreated, code)

		code, _ = s.do(http.MethodPost, "/api/network/members", staff, `{"accountId": "M", "referrerId": "R"}`)
		assert.Equal(t, http.StatusConflict, code)
		code, _ = s.do(http.MethodPost, "/api/network/members", staff, `{"accountId": "X", "referrerId": "ghost"}`)
		assert.Equal(t, http.StatusNotFound, code)
		code, _ = s.do(http.MethodPost, "/api/network/members", staff, `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("sales", func(t *testing.T) {
		body := `{"reference": "order-1", "accountId": "M", "amount": "10000", "type": "package", "at": "2025-03-10T12:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/network/sales", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+staff)
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data struct {
				Commissions []models.CommissionRecord `json:"commissions"`
				Total       decimal.Decimal           `json:"total"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Commissions, 1)
		assert.Equal(t, models.CommissionOnHold, resp.Data.Commissions[0].Status)
		assert.Equal(t, "1000.00", resp.Data.Total.StringFixed(2))

		code, _ := s.do(http.MethodPost, "/api/network/sales", staff, `{"accountId": "M", "amount": "-5", "type": "package"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		code, _ = s.do(http.MethodPost, "/api/network/sales", staff, `{"accountId": "X", "amount": "5", "type": "package"}`)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("account views", func(t *testing.T) {
		code, _ := s.do(http.MethodGet, "/api/network/accounts/M/uplines", member, "")
		assert.Equal(t, http.StatusOK, code)
		code, _ = s.do(http.MethodGet, "/api/network/accounts/R/wallet", member, "")
		assert.Equal(t, http.StatusForbidden, code)
		code, resp := s.do(http.MethodGet, "/api/network/accounts/R/commissions?status=on_hold", staff, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, resp.Data, 1)

		code, _ = s.do(http.MethodGet, "/api/network/accounts/R/commissions?status=pending", staff, "")
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = s.do(http.MethodGet, "/api/network/accounts/R/downlines?depth=0", staff, "")
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = s.do(http.MethodGet, "/api/network/accounts/R/volume?period=2025-03", staff, "")
		assert.Equal(t, http.StatusOK, code)
		code, _ = s.do(http.MethodGet, "/api/network/accounts/R/volume?period=March", staff, "")
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = s.do(http.MethodGet, "/api/network/accounts/ghost/rank", admin, "")
		assert.Equal(t, http.StatusNotFound, code)
		code, _ = s.do(http.MethodGet, "/api/network/accounts/R/rank", admin, "")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("jobs", func(t *testing.T) {
		code, _ := s.do(http.MethodPost, "/api/admin/network/jobs/bonus?period=2025-02", staff, "")
		assert.Equal(t, http.StatusAccepted, code)
		code, _ = s.do(http.MethodPost, "/api/admin/network/jobs/monthly-cycle?period=2025-02", staff, "")
		assert.Equal(t, http.StatusAccepted, code)
		ready, _ := s.queue.Pending()
		assert.Equal(t, 2, ready)

		code, _ = s.do(http.MethodPost, "/api/admin/network/jobs/rebuild?period=2025-02", staff, "")
		assert.Equal(t, http.StatusNotFound, code)
		code, _ = s.do(http.MethodPost, "/api/admin/network/jobs/bonus", staff, "")
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = s.do(http.MethodGet, "/api/admin/network/jobs/dead", admin, "")
		assert.Equal(t, http.StatusOK, code)
		code, _ = s.do(http.MethodGet, "/api/admin/network/bonuses?period=2025-02", admin, "")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("ops", func(t *testing.T) {
		code, _ := s.do(http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, code)
	})
}
