package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/testutil"
)

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(Options{}); err == nil {
		t.Fatal("Build() without config should fail")
	}
}

func TestBuildServesRequestsWithRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, err := Build(Options{
		Config: testutil.NewConfig(t),
		Logger: testutil.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if router.Secured != nil {
		t.Error("Secured group should be nil without auth middleware")
	}

	router.Engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response should carry a generated X-Request-Id")
	}
}

func TestBuildPreservesCallerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, err := Build(Options{
		Config: testutil.NewConfig(t),
		Logger: testutil.NewLogger(t),
		AuthMiddleware: func(c *gin.Context) {
			c.Next()
		},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if router.Secured == nil {
		t.Fatal("Secured group should exist when auth middleware is provided")
	}

	router.Secured.GET("/echo", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/echo", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Errorf("X-Request-Id = %q, want %q", got, "req-123")
	}
}
