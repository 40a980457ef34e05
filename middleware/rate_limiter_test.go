package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	limiter := NewRateLimiter(1)
	defer limiter.Stop()
	e.Use(limiter.RateLimit())
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/api/network/accounts/:id/rank", ok)
	e.GET("/health", ok)

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, call("/api/network/accounts/A/rank"))
	}
	assert.Equal(t, http.StatusTooManyRequests, call("/api/network/accounts/A/rank"))
	// blocked until the block expires
	assert.Equal(t, http.StatusTooManyRequests, call("/api/network/accounts/B/rank"))
	assert.Equal(t, http.StatusOK, call("/health"))
}

func TestRateLimiter_RoutesHaveSeparateBuckets(t *testing.T) {
	e := echo.New()
	limiter := NewRateLimiter(1)
	defer limiter.Stop()
	e.Use(limiter.RateLimit())
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.POST("/api/network/members", ok)
	e.POST("/api/network/sales", ok)

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.2")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, call("/api/network/members"))
	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, call("/api/network/sales"), "sale %d", i)
	}

	// exhausting the default bucket blocks members only
	for i := 1; i < 20; i++ {
		require.Equal(t, http.StatusOK, call("/api/network/members"))
	}
	assert.Equal(t, http.StatusTooManyRequests, call("/api/network/members"))
	assert.Equal(t, http.StatusOK, call("/api/network/sales"))
}

func TestRateLimiter_RemoveExpired(t *testing.T) {
	limiter := NewRateLimiter(60)
	now := time.Now()
	limiter.blockedIPs["10.0.0.3|/a"] = now.Add(-time.Minute)
	limiter.blockedIPs["10.0.0.3|/b"] = now.Add(time.Minute)
	limiter.getLimiter("10.0.0.3|/a", 1, 1)

	limiter.removeExpired(now)
	assert.NotContains(t, limiter.blockedIPs, "10.0.0.3|/a")
	assert.NotContains(t, limiter.ips, "10.0.0.3|/a")
	assert.Contains(t, limiter.blockedIPs, "10.0.0.3|/b")

	limiter.Stop()
	limiter.Stop()
	select {
	case <-limiter.stop:
	default:
		t.Fatal("stop channel still open")
	}
}

func TestRequireSelfOrUserType(t *testing.T) {
	e := echo.New()
	handler := RequireSelfOrUserType("id", UserTypeAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func(userID, userType, param string) int {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(param)
		if userID != "" {
			c.Set("userId", userID)
			c.Set("userType", userType)
		}
		_ = handler(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("A", UserTypeMember, "A"))
	assert.Equal(t, http.StatusForbidden, call("A", UserTypeMember, "B"))
	assert.Equal(t, http.StatusOK, call("root", UserTypeAdmin, "B"))
	assert.Equal(t, http.StatusUnauthorized, call("", "", "B"))
}
