package order

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/chenxi/bookshop/internal/identity"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/tracing"
)

// ListOrdersUseCase 我的订单列表用例
// 只能看到当前顾客自己的订单,最新在前
type ListOrdersUseCase struct {
	factory *mysql.StoreContextFactory
	log     *logger.Logger
}

// NewListOrdersUseCase 创建订单列表用例
func NewListOrdersUseCase(factory *mysql.StoreContextFactory, log *logger.Logger) *ListOrdersUseCase {
	return &ListOrdersUseCase{
		factory: factory,
		log:     log,
	}
}

// ListOrdersRequest 订单列表请求DTO
type ListOrdersRequest struct {
	CustomerID uuid.UUID // 顾客身份(由Cookie中间件注入)
	Page       int       // 页码(从1开始)
	PageSize   int       // 每页数量
}

// OrderSummary 订单列表项DTO(摘要,不含明细行详情)
type OrderSummary struct {
	OrderID   uint   `json:"order_id"`
	OrderNo   string `json:"order_no"`
	Total     int64  `json:"total"`
	TotalYuan string `json:"total_yuan"`
	ItemCount int    `json:"item_count"`
	CreatedAt string `json:"created_at"`
}

// ListOrdersResponse 订单列表响应DTO
type ListOrdersResponse struct {
	List       []OrderSummary `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Execute 执行订单列表查询
// 学习要点:
// 1. 分页参数在入口钳一次:page≥1,pageSize落在1..100,缺省20
// 2. 租户过滤不在这里写,访问器已经拼好
func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ListOrders")
	defer span.End()

	// 1. 钳制分页参数
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 2. 查询(限当前顾客,最新在前)
	store := uc.factory.NewContext(identity.Static(req.CustomerID))
	queries := mysql.NewQueryOrdersDBAccess(store)

	orders, total, err := queries.FindPage(ctx, req.Page, req.PageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// 3. 转换为DTO
	list := make([]OrderSummary, len(orders))
	for i, o := range orders {
		list[i] = OrderSummary{
			OrderID:   o.ID,
			OrderNo:   o.OrderNo,
			Total:     o.Total,
			TotalYuan: formatPrice(o.Total),
			ItemCount: len(o.Items),
			CreatedAt: o.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	// 4. 总页数向上取整
	totalPages := (int(total) + req.PageSize - 1) / req.PageSize

	return &ListOrdersResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}
