package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/coogmusic/coog-backend/internal/config"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func loginLimit() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:auth",
	}
}

func limitedServer(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw)
	return e
}

func hit(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	e := limitedServer(NewTokenBucket(loginLimit(), rdb, nil))

	for i := 0; i < 2; i++ {
		if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := hit(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	// other clients have their own bucket
	if rec := hit(e, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("other ip status = %d, want 200", rec.Code)
	}
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	e := limitedServer(NewTokenBucket(loginLimit(), rdb, nil))
	mr.Close()

	for i := 0; i < 5; i++ {
		if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200 while redis is down", i+1, rec.Code)
		}
	}
}

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
	cfg := loginLimit()
	cfg.Enabled = false
	e := limitedServer(NewTokenBucket(cfg, nil, nil))
	for i := 0; i < 5; i++ {
		if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/login")
	SetIdentity(c, Identity{UserID: 42})

	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:ip:10.1.2.3"},
		{"user", "rl:user:42"},
		{"ip_route", "rl:ip:10.1.2.3:route:POST /auth/login"},
		{"", "rl:ip:10.1.2.3:user:42:route:POST /auth/login"},
	}
	for _, tt := range tests {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
		if got := buildRateKey(cfg, c); got != tt.want {
			t.Errorf("strategy %q: key = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}
