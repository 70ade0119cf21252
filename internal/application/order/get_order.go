package order

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chenxi/bookshop/internal/domain/order"
	"github.com/chenxi/bookshop/internal/identity"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/pkg/circuitbreaker"
	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/metrics"
	"github.com/chenxi/bookshop/pkg/tracing"
)

// DetailCache 订单详情缓存端口
// redis.OrderCache天然满足;测试可注入假实现或直接传nil关闭缓存
type DetailCache interface {
	GetDetail(ctx context.Context, customerID uuid.UUID, orderID uint) (string, bool, error)
	SetDetail(ctx context.Context, customerID uuid.UUID, orderID uint, detailJSON string) error
}

// GetOrderUseCase 订单详情查询用例
// 设计说明:
// 1. Cache-Aside:先查缓存,未命中回源数据库并回填
// 2. 缓存访问包在熔断器里:Redis故障时快速跳过缓存直查库,
//    缓存层只能让查询变快,不能让查询变得不可用
// 3. 订单落库后不可变,缓存没有失效问题,只设TTL控内存
type GetOrderUseCase struct {
	factory *mysql.StoreContextFactory
	cache   DetailCache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewGetOrderUseCase 创建订单详情查询用例
// cache/breaker可为nil(缓存层整体关闭),查询路径自动退化为直查数据库
func NewGetOrderUseCase(
	factory *mysql.StoreContextFactory,
	cache DetailCache,
	breaker *circuitbreaker.CircuitBreaker,
	log *logger.Logger,
) *GetOrderUseCase {
	return &GetOrderUseCase{
		factory: factory,
		cache:   cache,
		breaker: breaker,
		log:     log,
	}
}

// GetOrderRequest 订单详情请求DTO
type GetOrderRequest struct {
	CustomerID uuid.UUID // 顾客身份(由Cookie中间件注入)
	OrderID    uint
}

// OrderDetailResponse 订单详情响应DTO
type OrderDetailResponse struct {
	OrderID   uint              `json:"order_id"`
	OrderNo   string            `json:"order_no"`
	Total     int64             `json:"total"`
	TotalYuan string            `json:"total_yuan"`
	Items     []OrderDetailItem `json:"items"`
	CreatedAt string            `json:"created_at"`
}

// OrderDetailItem 订单明细行DTO
// Price是下单时捕获的单价快照,图书后来改价/促销不影响这里
type OrderDetailItem struct {
	LineNum   int    `json:"line_num"`
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"` // 图书已下架时显示占位文案
	Price     int64  `json:"price"`
	PriceYuan string `json:"price_yuan"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// Execute 执行订单详情查询
// 缓存故障(含熔断打开)只记日志降级,永远不向用户报缓存错误
func (uc *GetOrderUseCase) Execute(ctx context.Context, req GetOrderRequest) (*OrderDetailResponse, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("order_id", int(req.OrderID)))

	// 1. 查缓存(经熔断器)
	if uc.cache != nil {
		if resp, ok := uc.lookupCache(ctx, req); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return resp, nil
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
	}

	// 2. 回源数据库(租户过滤在访问器里,查不到别人的订单)
	store := uc.factory.NewContext(identity.Static(req.CustomerID))
	queries := mysql.NewQueryOrdersDBAccess(store)

	o, err := queries.FindByID(ctx, req.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp := toDetailResponse(o)

	// 3. 回填缓存(尽力而为)
	if uc.cache != nil {
		uc.fillCache(ctx, req, resp)
	}

	return resp, nil
}

// throughBreaker 经熔断器执行一次缓存操作,按结果打点
// breaker为nil时直连(缓存保护整体关闭)
func (uc *GetOrderUseCase) throughBreaker(fn func() error) error {
	if uc.breaker == nil {
		return fn()
	}

	err := uc.breaker.Execute(fn)
	result := "failure"
	switch {
	case err == nil:
		result = "success"
	case errors.Is(err, circuitbreaker.ErrOpenState):
		result = "rejected" // 短路,fn没有被执行
	}
	metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{
		"name":   uc.breaker.Name(),
		"result": result,
	})
	return err
}

// lookupCache 读缓存,返回(响应, 是否命中且可用)
func (uc *GetOrderUseCase) lookupCache(ctx context.Context, req GetOrderRequest) (*OrderDetailResponse, bool) {
	var cached string
	var hit bool
	lookup := func() error {
		var err error
		cached, hit, err = uc.cache.GetDetail(ctx, req.CustomerID, req.OrderID)
		return err
	}

	if err := uc.throughBreaker(lookup); err != nil {
		// 熔断打开或Redis故障:降级直查数据库
		uc.log.Warn("订单缓存读取失败,回源数据库", "order_id", req.OrderID, "err", err)
		return nil, false
	}
	if !hit {
		metrics.IncCounterVec(metrics.CacheMissesTotal, map[string]string{"cache": "order_detail"})
		return nil, false
	}

	var resp OrderDetailResponse
	if err := json.Unmarshal([]byte(cached), &resp); err != nil {
		// 缓存内容损坏按未命中处理,回源后会覆盖写
		uc.log.Warn("订单缓存内容无法解析,按未命中处理", "order_id", req.OrderID, "err", err)
		metrics.IncCounterVec(metrics.CacheMissesTotal, map[string]string{"cache": "order_detail"})
		return nil, false
	}

	metrics.IncCounterVec(metrics.CacheHitsTotal, map[string]string{"cache": "order_detail"})
	return &resp, true
}

// fillCache 回填缓存,失败只记日志
func (uc *GetOrderUseCase) fillCache(ctx context.Context, req GetOrderRequest, resp *OrderDetailResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		uc.log.Warn("订单详情序列化失败,跳过缓存回填", "order_id", req.OrderID, "err", err)
		return
	}

	write := func() error {
		return uc.cache.SetDetail(ctx, req.CustomerID, req.OrderID, string(data))
	}
	if err := uc.throughBreaker(write); err != nil {
		uc.log.Warn("订单缓存回填失败", "order_id", req.OrderID, "err", err)
	}
}

// toDetailResponse 领域实体 → 详情DTO
func toDetailResponse(o *order.Order) *OrderDetailResponse {
	items := make([]OrderDetailItem, len(o.Items))
	for i, item := range o.Items {
		title := "(已下架)"
		if item.Book != nil {
			title = item.Book.Title
		}
		items[i] = OrderDetailItem{
			LineNum:   item.LineNum,
			BookID:    item.BookID,
			Title:     title,
			Price:     item.Price,
			PriceYuan: formatPrice(item.Price),
			Quantity:  item.Quantity,
			Subtotal:  item.Price * int64(item.Quantity),
		}
	}

	return &OrderDetailResponse{
		OrderID:   o.ID,
		OrderNo:   o.OrderNo,
		Total:     o.Total,
		TotalYuan: formatPrice(o.Total),
		Items:     items,
		CreatedAt: o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
