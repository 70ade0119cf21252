package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chenxi/bookshop/pkg/metrics"
)

// Metrics HTTP指标中间件
// 教学要点:
// 1. path标签必须用c.FullPath()(路由模板,如/api/v1/orders/:id),
//    不能用真实路径:否则每个订单ID都是一个新标签值,
//    标签基数爆炸会拖垮Prometheus
// 2. 在途请求数用Gauge配defer,Handler panic时也能正确回落
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncGauge(metrics.HTTPRequestsInProgress)
		defer metrics.DecGauge(metrics.HTTPRequestsInProgress)

		c.Next()

		// 未命中任何路由(404)时FullPath为空,归到统一桶里
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.IncCounterVec(metrics.HTTPRequestsTotal, map[string]string{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		})
		metrics.ObserveHistogramVec(metrics.HTTPRequestDuration, map[string]string{
			"method": c.Request.Method,
			"path":   path,
		}, time.Since(start).Seconds())
	}
}
