package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/worksgraph/internal/platform/logger"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestRequestLoggerIncludesHandlerFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, logs := observedLogger()

	r := gin.New()
	r.Use(AttachTraceContext(), RequestLogger(log))
	r.GET("/api/works/view", func(c *gin.Context) {
		AddLogFields(c, "filter_category", "Drama")
		AddLogFields(c, "matched", 2)
		c.String(http.StatusOK, "ok")
	})
	r.GET("/api/works", func(c *gin.Context) {
		c.String(http.StatusServiceUnavailable, "down")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/works/view?category=Drama", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/works", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries: want=2 got=%d", len(entries))
	}
	first := entries[0].ContextMap()
	checks := map[string]string{
		"route":           "/api/works/view",
		"status":          "200",
		"request_id":      "req-7",
		"filter_category": "Drama",
		"matched":         "2",
	}
	for k, want := range checks {
		if got := fmt.Sprint(first[k]); got != want {
			t.Fatalf("field %s: want=%q got=%q (all=%v)", k, want, got, first)
		}
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("2xx level: got=%v", entries[0].Level)
	}

	second := entries[1]
	if second.Level != zapcore.ErrorLevel {
		t.Fatalf("5xx level: got=%v", second.Level)
	}
	if _, ok := second.ContextMap()["matched"]; ok {
		t.Fatalf("fields must not leak across requests: %v", second.ContextMap())
	}
}

func TestRequestLoggerNilLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(nil))
	r.GET("/healthcheck", func(c *gin.Context) {
		AddLogFields(c, "k", "v")
		c.String(http.StatusOK, "ok")
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
}
