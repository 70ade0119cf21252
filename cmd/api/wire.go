//go:build wireinject
// +build wireinject

// Wire装配描述
//
// 教学说明：
// Wire在编译期生成依赖装配代码:`wire gen ./cmd/api`读本文件,
// 产出wire_gen.go,里面是按依赖顺序排好的构造函数调用。
// 与运行时反射注入相比,错装漏装在生成期就报错,运行期零开销。
//
// main.go当前手工串依赖(链路短,手串更直观),本文件让
// `wire gen`随时可以接管:两边的Provider是同一批函数,
// 不存在第二套装配逻辑
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appbook "github.com/chenxi/bookshop/internal/application/book"
	apporder "github.com/chenxi/bookshop/internal/application/order"
	"github.com/chenxi/bookshop/internal/infrastructure/config"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/redis"
	"github.com/chenxi/bookshop/internal/interface/http/handler"
	"github.com/chenxi/bookshop/internal/interface/http/middleware"
	"github.com/chenxi/bookshop/pkg/circuitbreaker"
	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/metrics"
	"github.com/chenxi/bookshop/pkg/mq"
)

// Provider按层分组,组内是普通构造函数

// infrastructureSet 配置、日志、两个连接池
var infrastructureSet = wire.NewSet(
	config.Load,
	provideLogger,
	mysql.NewDB,
	redis.NewClient,
)

// storeSet 存储上下文工厂和订单详情缓存一侧的全部件
var storeSet = wire.NewSet(
	mysql.NewStoreContextFactory,
	redis.NewOrderCache,
	provideDetailCache,
	provideCacheBreaker,
	provideEventPublisher,
)

// applicationSet 四个用例
var applicationSet = wire.NewSet(
	apporder.NewPlaceOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewGetOrderUseCase,
	appbook.NewListBooksUseCase,
)

// handlerSet HTTP处理器
var handlerSet = wire.NewSet(
	handler.NewBookHandler,
	handler.NewOrderHandler,
)

// 构造参数要从Config里挑字段、或要做接口适配的依赖,
// 各自来一个显式Provider

// provideLogger 按日志配置构造结构化日志器
func provideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.EnableCaller)
}

// provideDetailCache 具体缓存适配到用例声明的小接口
// Wire不做隐式接口匹配,适配必须显式写出来
func provideDetailCache(cache *redis.OrderCache) apporder.DetailCache {
	return cache
}

// provideCacheBreaker 订单详情缓存专用熔断器
// 连续5次失败短路,30秒后放3个探针;状态翻转进日志和指标
func provideCacheBreaker(lg *logger.Logger) *circuitbreaker.CircuitBreaker {
	cb := circuitbreaker.NewCircuitBreaker("order-cache", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		lg.Warn("熔断器状态切换", "breaker", name, "from", from.String(), "to", to.String())
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	})
	return cb
}

// provideEventPublisher MQ关着时给Nop实现,用例不判空
func provideEventPublisher(cfg *config.Config) (apporder.EventPublisher, error) {
	if !cfg.MQ.Enabled {
		return apporder.NopPublisher{}, nil
	}
	return mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType)
}

// provideGinEngine 建引擎、挂中间件、注册全部路由
// 身份中间件只罩/api/v1:健康检查、指标抓取、swagger不需要身份
func provideGinEngine(
	cfg *config.Config,
	lg *logger.Logger,
	bookHandler *handler.BookHandler,
	orderHandler *handler.OrderHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(lg))
	r.Use(middleware.Metrics())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Prometheus抓取端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API文档:http://localhost:8080/swagger/index.html
	// 生产环境建议关掉或加访问控制
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.CustomerIdentity())
	{
		books := v1.Group("/books")
		{
			books.GET("", bookHandler.ListBooks)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}
	}

	return r
}

// InitializeApp Injector入口:声明目标类型,组装交给Wire
// 函数体是占位,`wire gen`生成的wire_gen.go才是真实现
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		storeSet,
		applicationSet,
		handlerSet,
		provideGinEngine,
	)
	return nil, nil
}
