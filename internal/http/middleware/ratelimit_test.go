package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

type stubLimiter struct {
	allow bool
	err   error
}

func (s *stubLimiter) Allow(_ context.Context, _ string) (bool, error) { return s.allow, s.err }
func (s *stubLimiter) Close() error                                    { return nil }

func serveWithLimiter(t *testing.T, limiter *stubLimiter) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	r := gin.New()
	r.Use(RateLimit(log, limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllows(t *testing.T) {
	w := serveWithLimiter(t, &stubLimiter{allow: true})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	w := serveWithLimiter(t, &stubLimiter{allow: false})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestRateLimitFailsOpenOnRedisError(t *testing.T) {
	w := serveWithLimiter(t, &stubLimiter{err: fmt.Errorf("redis down")})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 when limiter errors, got %d", w.Code)
	}
}
