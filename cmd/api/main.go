package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
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
	"github.com/chenxi/bookshop/pkg/response"
	"github.com/chenxi/bookshop/pkg/tracing"
)

// main 主程序入口
// 说明：手动依赖注入，组装顺序自下而上：
// 基础设施（配置/日志/DB/Redis/MQ/追踪）→ 存储上下文工厂 → 用例 → Handler → 路由
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志（之后的组件全部用结构化日志）
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.EnableCaller); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	lg := logger.L()
	defer lg.Sync()

	lg.Info("配置加载成功",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"database", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName),
		"redis", cfg.Redis.Addr(),
	)

	// 3. 初始化Prometheus指标（必须在任何Inc/Observe之前）
	metrics.InitMetrics()

	// 4. 初始化链路追踪（可选）
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			lg.Fatal("初始化链路追踪失败", "err", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				lg.Error("关闭链路追踪失败", "err", err)
			}
		}()
	}

	// 5. 初始化数据库连接（内部完成建表迁移）
	db, err := mysql.NewDB(cfg, lg)
	if err != nil {
		lg.Fatal("初始化数据库失败", "err", err)
	}

	// 6. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg, lg)
	if err != nil {
		lg.Fatal("初始化Redis失败", "err", err)
	}

	// 7. 初始化消息队列（可选：未启用时订单事件静默丢弃）
	var publisher apporder.EventPublisher = apporder.NopPublisher{}
	if cfg.MQ.Enabled {
		p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType)
		if err != nil {
			lg.Fatal("初始化消息队列失败", "err", err)
		}
		defer p.Close()
		publisher = p
	}

	// 8. 依赖注入（手动组装）
	// 学习要点：依赖注入链
	// StoreContextFactory ← UseCase ← Handler

	// 基础设施层
	factory := mysql.NewStoreContextFactory(db, lg)
	orderCache := redis.NewOrderCache(redisClient)
	cacheBreaker := circuitbreaker.NewCircuitBreaker("order-cache", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			// Redis连续5次失败就熔断，查询直接放过数据库
			return counts.ConsecutiveFailures >= 5
		},
	})
	// 状态翻转打点：看板上circuit_breaker_state离开0就是缓存出事了
	cacheBreaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		lg.Warn("熔断器状态切换", "breaker", name, "from", from.String(), "to", to.String())
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	})

	// 应用层
	placeOrderUseCase := apporder.NewPlaceOrderUseCase(factory, publisher, lg)
	listOrdersUseCase := apporder.NewListOrdersUseCase(factory, lg)
	getOrderUseCase := apporder.NewGetOrderUseCase(factory, orderCache, cacheBreaker, lg)
	listBooksUseCase := appbook.NewListBooksUseCase(factory, lg)

	// 接口层
	bookHandler := handler.NewBookHandler(listBooksUseCase)
	orderHandler := handler.NewOrderHandler(placeOrderUseCase, listOrdersUseCase, getOrderUseCase)

	// 9. 初始化Gin引擎
	// 不用gin.Default()：默认Logger换成zap结构化日志
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(lg)) // 请求日志
	r.Use(middleware.Metrics())         // HTTP指标
	r.Use(gin.Recovery())               // Panic恢复

	// 10. 注册路由
	registerRoutes(r, bookHandler, orderHandler)

	// 11. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	lg.Info("服务启动成功",
		"addr", addr,
		"health", "GET /health",
		"metrics", "GET /metrics",
		"browse", "GET /api/v1/books",
		"place_order", "POST /api/v1/orders",
	)

	if err := r.Run(addr); err != nil {
		lg.Fatal("启动服务失败", "err", err)
	}
}

// registerRoutes 注册路由
func registerRoutes(r *gin.Engine, bookHandler *handler.BookHandler, orderHandler *handler.OrderHandler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{
			"status": "healthy",
		})
	})

	// Prometheus抓取端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档(swag init生成docs后访问/swagger/index.html)
	// 生产环境建议禁用或加访问控制
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	// 顾客身份中间件挂在组上：每个请求都会拿到Cookie身份，
	// 不存在"未登录"一说，游客进门就是顾客
	v1 := r.Group("/api/v1")
	v1.Use(middleware.CustomerIdentity())
	{
		// 图书模块（只读：书目维护走cmd/seed，不开HTTP写接口）
		books := v1.Group("/books")
		{
			books.GET("", bookHandler.ListBooks) // 浏览书目
		}

		// 订单模块
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.PlaceOrder)    // 提交订单
			orders.GET("", orderHandler.ListOrders)     // 我的订单列表
			orders.GET("/:id", orderHandler.GetOrder)   // 订单详情
		}
	}
}
