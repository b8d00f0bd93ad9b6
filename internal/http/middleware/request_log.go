package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/worksgraph/internal/platform/ctxutil"
	"github.com/yungbote/worksgraph/internal/platform/logger"
)

const logFieldsKey = "worksgraph.log_fields"

// AddLogFields attaches key/value pairs to the access log line written for
// the current request.
func AddLogFields(c *gin.Context, keysAndValues ...interface{}) {
	if len(keysAndValues) == 0 {
		return
	}
	prev, _ := c.Get(logFieldsKey)
	fields, _ := prev.([]interface{})
	c.Set(logFieldsKey, append(fields, keysAndValues...))
}

// RequestLogger writes one line per request once the handler chain returns:
// 5xx at Error, 4xx at Warn, everything else at Info.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if extra, ok := c.Get(logFieldsKey); ok {
			if kv, ok := extra.([]interface{}); ok {
				fields = append(fields, kv...)
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
