package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/worksgraph/internal/http/handlers"
	httpMW "github.com/yungbote/worksgraph/internal/http/middleware"
	"github.com/yungbote/worksgraph/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	ServiceName  string
	AllowOrigins []string

	HealthHandler *httpH.HealthHandler
	WorksHandler  *httpH.WorksHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "worksgraph"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Works
		if cfg.WorksHandler != nil {
			api.GET("/works", cfg.WorksHandler.List)
			api.GET("/works/view", cfg.WorksHandler.View)
			api.GET("/works/facets", cfg.WorksHandler.Facets)
			api.POST("/works/reload", cfg.WorksHandler.Reload)
		}
	}

	return r
}
