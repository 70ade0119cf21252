// Package metrics 定义本服务的Prometheus指标集
//
// 指标回答"有多少、多快"(Tracing回答"为什么慢",Logging回答
// "发生了什么")。本服务关心四组数字:
//   - HTTP层:请求量、耗时分布、在途请求数
//   - 下单业务:成功/失败单量、校验拦截量、下单耗时
//   - 订单详情缓存:命中/未命中、熔断器状态
//   - 事件队列:发布/消费量、消费耗时
//
// 三种指标类型的选型:
//   - Counter 只增不减:请求数、单量、拦截数(名字以_total结尾)
//   - Gauge   可增可减的瞬时值:在途请求数、熔断器状态
//   - Histogram 观测值分布:耗时(名字以单位结尾,如_seconds)
//
// 标签用有限值域的维度(method/path/status/kind),
// 绝不用customer_id这类高基数值当标签,否则时间序列爆炸。
//
// 教学要点：
//   - 埋点位置看internal/application/order/place_order.go
//     和internal/interface/http/middleware/metrics.go
//   - 指标经promauto注册进默认Registry,由/metrics路由暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace 统一前缀,避免与同一Prometheus里的其他服务撞名
const namespace = "bookshop"

var (
	// registered 拦住第二次InitMetrics:promauto对重名指标会panic
	registered bool

	// ---- HTTP层 ----

	// HTTPRequestsTotal 请求总数,按方法/路由/状态码拆分
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration 请求耗时分布,按方法/路由拆分
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 在途请求数
	HTTPRequestsInProgress prometheus.Gauge

	// ---- 下单业务 ----

	// OrdersCreatedTotal 成功落库的订单数
	OrdersCreatedTotal prometheus.Counter

	// OrdersFailedTotal 因故障未能落库的订单数(校验拦截不算)
	OrdersFailedTotal prometheus.Counter

	// OrderCreationDuration 下单全程耗时(校验+落库+发事件)
	OrderCreationDuration prometheus.Histogram

	// OrdersInProgress 在途下单请求数
	OrdersInProgress prometheus.Gauge

	// ValidationFailuresTotal 保存前校验的拦截数,按实体种类拆分
	// 拦截是正常业务而非故障,但该曲线持续抬头说明上游数据有问题
	ValidationFailuresTotal *prometheus.CounterVec

	// ---- 缓存与熔断 ----

	// CacheHitsTotal 缓存命中数,按缓存名拆分(如order_detail)
	CacheHitsTotal *prometheus.CounterVec

	// CacheMissesTotal 缓存未命中数(含缓存故障降级)
	CacheMissesTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态:0=CLOSED 1=OPEN 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 经熔断器的调用数,按名字/结果拆分
	CircuitBreakerRequests *prometheus.CounterVec

	// ---- 事件队列 ----

	// MessagesPublishedTotal 发布的事件数,按交换机/路由键拆分
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消费的事件数,按队列/结果拆分
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 单条事件的处理耗时
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 注册全部指标,进程启动时调用一次
// 重复调用是空操作,用例测试可以放心在各自的setup里调它
func InitMetrics() {
	if registered {
		return
	}
	registered = true

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "在途HTTP请求数",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "成功创建的订单数",
	})

	OrdersFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "因故障失败的下单数",
	})

	OrderCreationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_creation_duration_seconds",
		Help:      "下单耗时",
		// 正常下单几十毫秒,长尾留到2秒
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	OrdersInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "orders_in_progress",
		Help:      "在途下单请求数",
	})

	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "保存前校验拦截数",
	}, []string{"kind"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "缓存命中数",
	}, []string{"cache"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "缓存未命中数",
	}, []string{"cache"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "熔断器状态(0=CLOSED 1=OPEN 2=HALF_OPEN)",
	}, []string{"name"})

	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "经熔断器的调用数",
	}, []string{"name", "result"})

	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_published_total",
		Help:      "发布的事件数",
	}, []string{"exchange", "routing_key"})

	MessagesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_consumed_total",
		Help:      "消费的事件数",
	}, []string{"queue", "result"})

	MessageProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_processing_duration_seconds",
		Help:      "单条事件处理耗时",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 2},
	})
}

// 下面的便捷函数给埋点处省一层方法链,也让埋点代码风格统一

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 按标签递增CounterVec
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGauge 设置Gauge
func SetGauge(gauge prometheus.Gauge, value float64) {
	gauge.Set(value)
}

// SetGaugeVec 按标签设置GaugeVec
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录一次Histogram观测
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 按标签记录HistogramVec观测
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
