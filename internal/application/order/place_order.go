package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chenxi/bookshop/internal/domain/order"
	"github.com/chenxi/bookshop/internal/domain/validation"
	"github.com/chenxi/bookshop/internal/identity"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/metrics"
	"github.com/chenxi/bookshop/pkg/tracing"
)

// tracerName 本服务在追踪系统中的标识
const tracerName = "bookshop-api"

// PlaceOrderUseCase 下单用例
// 教学要点:这是整个项目最核心的用例
// 涉及:工作单元、保存前校验门禁、促销价捕获、事件发布
type PlaceOrderUseCase struct {
	factory   *mysql.StoreContextFactory
	publisher EventPublisher
	log       *logger.Logger
}

// NewPlaceOrderUseCase 创建下单用例
func NewPlaceOrderUseCase(
	factory *mysql.StoreContextFactory,
	publisher EventPublisher,
	log *logger.Logger,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		factory:   factory,
		publisher: publisher,
		log:       log,
	}
}

// PlaceOrderRequest 下单请求DTO
type PlaceOrderRequest struct {
	CustomerID uuid.UUID        // 顾客身份(由Cookie中间件注入)
	Items      []PlaceOrderItem // 购买条目
}

// PlaceOrderItem 购买条目
type PlaceOrderItem struct {
	BookID   uint // 图书ID
	Quantity int  // 购买数量
}

// PlaceOrderResponse 下单响应DTO
type PlaceOrderResponse struct {
	OrderID   uint   `json:"order_id"`
	OrderNo   string `json:"order_no"`
	Total     int64  `json:"total"`
	TotalYuan string `json:"total_yuan"`
	CreatedAt string `json:"created_at"`
}

// Execute 执行下单用例
// 教学重点:价格在服务端捕获,校验失败是数据不是异常
//
// 核心问题一:改价攻击
// 错误实现:相信前端传来的价格
// 正确实现:只收(图书ID,数量),单价按库内当前生效价取
//   - 有促销价取促销价,否则取定价
//   - 取价和保存在同一工作单元内完成
//
// 核心问题二:半成品订单
// 错误实现:先插订单再逐项检查,失败了再删
// 正确实现:全部变更只暂存;带校验的保存要么整单落库要么整单不落
//
// 返回三元组:
//   - (resp, nil, nil):下单成功
//   - (nil, failures, nil):校验未通过,failures逐条描述(字段,原因)
//   - (nil, nil, err):存储或基础设施故障
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, []validation.FieldError, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("item_count", len(req.Items)))

	start := time.Now()
	metrics.IncGauge(metrics.OrdersInProgress)
	defer metrics.DecGauge(metrics.OrdersInProgress)

	// 1. 为本次工作单元构造存储上下文(身份在此刻固化)
	store := uc.factory.NewContext(identity.Static(req.CustomerID))
	access := mysql.NewPlaceOrderDBAccess(store)

	// 2. 批量取书(联带促销价)
	// 去重后一次查询,避免同一本书出现多行时反复查库
	bookIDs := make([]uint, 0, len(req.Items))
	seen := make(map[uint]bool, len(req.Items))
	for _, item := range req.Items {
		if !seen[item.BookID] {
			seen[item.BookID] = true
			bookIDs = append(bookIDs, item.BookID)
		}
	}

	books, err := access.FindBooksByIDsWithPriceOffers(ctx, bookIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.IncCounter(metrics.OrdersFailedTotal)
		return nil, nil, err
	}

	// 3. 组装明细行
	// 缺席的图书(不存在或已下架)记为校验失败,不走错误通道:
	// 对用户来说这是可修正的输入问题,逐条指出哪一行买不了
	var failures []validation.FieldError
	items := make([]order.LineItem, 0, len(req.Items))
	for i, item := range req.Items {
		b, ok := books[item.BookID]
		if !ok {
			failures = append(failures, validation.FieldError{
				Field:   fmt.Sprintf("Items[%d].BookID", i),
				Message: "图书不存在或已下架",
			})
			continue
		}
		items = append(items, order.LineItem{
			BookID:   b.ID,
			Price:    b.ActualPrice(), // 促销价优先,定价兜底
			Quantity: item.Quantity,
		})
	}
	if len(failures) > 0 {
		metrics.IncCounterVec(metrics.ValidationFailuresTotal, map[string]string{"kind": order.KindOrder})
		span.SetStatus(codes.Error, "下单请求未通过校验")
		return nil, failures, nil
	}

	// 4. 创建订单并暂存
	o := order.NewOrder(req.CustomerID, items)
	access.Add(o)

	// 5. 带校验门禁的保存:通过则原子落库,不通过则返回失败明细
	failures, err = store.SaveChangesWithValidation(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.IncCounter(metrics.OrdersFailedTotal)
		return nil, nil, err
	}
	if len(failures) > 0 {
		metrics.IncCounterVec(metrics.ValidationFailuresTotal, map[string]string{"kind": order.KindOrder})
		span.SetStatus(codes.Error, "订单未通过保存前校验")
		return nil, failures, nil
	}

	// 6. 发布order.created事件
	// 事件发布失败不回滚订单:下单成功已是事实,事件只服务周边系统
	event := OrderCreatedEvent{
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		CustomerID: o.CustomerID.String(),
		Total:      o.Total,
		ItemCount:  len(o.Items),
		CreatedAt:  o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if err := uc.publisher.Publish(RoutingKeyOrderCreated, event); err != nil {
		uc.log.Error("发布order.created事件失败", "order_no", o.OrderNo, "err", err)
	} else {
		metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
			"exchange":    uc.publisher.Exchange(),
			"routing_key": RoutingKeyOrderCreated,
		})
	}

	metrics.IncCounter(metrics.OrdersCreatedTotal)
	metrics.ObserveHistogram(metrics.OrderCreationDuration, time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "下单成功")

	uc.log.Info("下单成功",
		"order_no", o.OrderNo,
		"customer_id", o.CustomerID.String(),
		"total", o.Total,
		"items", len(o.Items),
		"trace_id", tracing.ExtractTraceID(ctx),
	)

	return &PlaceOrderResponse{
		OrderID:   o.ID,
		OrderNo:   o.OrderNo,
		Total:     o.Total,
		TotalYuan: formatPrice(o.Total),
		CreatedAt: o.CreatedAt.Format("2006-01-02 15:04:05"),
	}, nil, nil
}

// formatPrice 格式化价格(分→元)
func formatPrice(priceFen int64) string {
	yuan := float64(priceFen) / 100.0
	return fmt.Sprintf("%.2f", yuan)
}
