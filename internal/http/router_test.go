package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/worksgraph/internal/domain"
	httpH "github.com/yungbote/worksgraph/internal/http/handlers"
	httpMW "github.com/yungbote/worksgraph/internal/http/middleware"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/query"
)

type staticLoader []domain.Work

func (s staticLoader) LoadWorks(context.Context) ([]domain.Work, error) {
	return append([]domain.Work(nil), s...), nil
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := query.NewStore(staticLoader{{Title: "Nova", CategoryTags: []string{"Sci-Fi"}}}, nil)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return NewRouter(RouterConfig{
		Log:           logger.NewNop(),
		AllowOrigins:  []string{"http://localhost:3000"},
		HealthHandler: httpH.NewHealthHandler(),
		WorksHandler:  httpH.NewWorksHandler(nil, store),
	})
}

func TestRouterRoutes(t *testing.T) {
	r := testRouter(t)
	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/healthcheck", http.StatusOK},
		{http.MethodGet, "/api/works", http.StatusOK},
		{http.MethodGet, "/api/works/view?title=nov", http.StatusOK},
		{http.MethodGet, "/api/works/facets", http.StatusOK},
		{http.MethodPost, "/api/works/reload", http.StatusOK},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s %s: want=%d got=%d", tc.method, tc.target, tc.want, rec.Code)
		}
	}
}

func TestRouterSetsCorrelationHeaders(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Header().Get(httpMW.HeaderRequestID) == "" || rec.Header().Get(httpMW.HeaderTraceID) == "" {
		t.Fatalf("missing correlation headers: %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(httpMW.HeaderRequestID, "req-42")
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(httpMW.HeaderRequestID); got != "req-42" {
		t.Fatalf("request id not echoed: got=%q", got)
	}
}

func TestRouterCORS(t *testing.T) {
	r := testRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/works", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin: got=%q", got)
	}
}
