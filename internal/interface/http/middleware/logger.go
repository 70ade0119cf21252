package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/tracing"
)

// RequestLogger 请求日志中间件
//
// 教学要点:
// 1. 为每个请求生成唯一request_id并写进响应头,
//    用户反馈问题时报这个号就能定位到完整日志
// 2. 结构化输出(zap):方法、路由、状态码、耗时、客户端IP
// 3. 状态码决定日志级别:5xx是Error,4xx是Warn,其余Info
//
// DON'T(错误做法):
// - 记录敏感信息(Cookie原文、完整请求体)
// - 日志里用带参数的真实路径做聚合维度(没法聚合)
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		// 带上trace_id,日志和链路追踪可以互相跳转
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Error("HTTP请求", fields...)
		case status >= 400:
			log.Warn("HTTP请求", fields...)
		default:
			log.Info("HTTP请求", fields...)
		}
	}
}
