package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("b", 2, 1), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))
}

func TestPrune(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }
	l.Allow("old", 1, 1)
	now = now.Add(time.Hour)
	l.Allow("fresh", 1, 1)

	assert.Equal(t, 1, l.Prune(time.Minute))
	assert.Len(t, l.m, 1)
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	l := New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, l.Middleware(1, 0.001))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMiddlewareDropsQuietClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, l.Middleware(10, 2))

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2000; i++ {
		require.Equal(t, http.StatusOK, hit(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	assert.Len(t, l.m, 2000)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit("192.168.1.1"))
	assert.Len(t, l.m, 1)
}

func TestRefillIdle(t *testing.T) {
	assert.Equal(t, time.Minute, refillIdle(10, 2))
	assert.Equal(t, 1000*time.Second, refillIdle(1, 0.001))
	assert.Equal(t, time.Minute, refillIdle(1, 0))
}
