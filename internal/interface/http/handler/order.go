package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apporder "github.com/chenxi/bookshop/internal/application/order"
	"github.com/chenxi/bookshop/internal/interface/http/dto"
	"github.com/chenxi/bookshop/internal/interface/http/middleware"
	apperrors "github.com/chenxi/bookshop/pkg/errors"
	"github.com/chenxi/bookshop/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	placeOrderUseCase *apporder.PlaceOrderUseCase
	listOrdersUseCase *apporder.ListOrdersUseCase
	getOrderUseCase   *apporder.GetOrderUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	placeOrderUseCase *apporder.PlaceOrderUseCase,
	listOrdersUseCase *apporder.ListOrdersUseCase,
	getOrderUseCase *apporder.GetOrderUseCase,
) *OrderHandler {
	return &OrderHandler{
		placeOrderUseCase: placeOrderUseCase,
		listOrdersUseCase: listOrdersUseCase,
		getOrderUseCase:   getOrderUseCase,
	}
}

// PlaceOrder 提交订单
// @Summary      提交订单
// @Description  顾客下单购买图书,身份来自Cookie,成交价以服务端当前售价为准
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        request body dto.PlaceOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=dto.PlaceOrderResponse} "下单成功"
// @Failure      200 {object} response.Response "code=40900 参数错误;code=42200 校验未通过"
// @Router       /orders [post]
//
// 教学说明:三路返回的分流
// 用例Execute返回(result, failures, err)三个值,Handler按含义分流:
// - err != nil: 基础设施故障(比如数据库挂了),response.Error返回50000系错误码
// - failures非空: 业务校验未通过,这是预期内的结果,
//   response.ValidationFailed逐字段返回明细,前端在表单上对应标红
// - 都为空: 下单成功
// 把"校验失败"和"系统故障"混成一个error是常见错误:
// 前者要给用户看字段明细,后者要告警并隐藏细节,处理方式完全不同
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	// 1. 参数绑定与验证
	// accept_terms由binding兜底:没勾选(false)直接打回
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	// 2. 从Cookie中间件取顾客身份
	customerID := middleware.MustGetCustomerID(c)

	// 3. 转换为应用层DTO
	items := make([]apporder.PlaceOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = apporder.PlaceOrderItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		}
	}

	// 4. 调用应用层用例
	result, failures, err := h.placeOrderUseCase.Execute(c.Request.Context(), apporder.PlaceOrderRequest{
		CustomerID: customerID,
		Items:      items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(failures) > 0 {
		response.ValidationFailed(c, failures)
		return
	}

	// 5. 构建HTTP响应
	response.Success(c, &dto.PlaceOrderResponse{
		OrderID:   result.OrderID,
		OrderNo:   result.OrderNo,
		Total:     result.Total,
		TotalYuan: result.TotalYuan,
		CreatedAt: result.CreatedAt,
	})
}

// ListOrders 我的订单列表
// @Summary      我的订单列表
// @Description  按下单时间倒序返回当前顾客的订单,看不到任何别人的订单
// @Tags         订单模块
// @Produce      json
// @Param        page query int false "页码(默认1)"
// @Param        page_size query int false "每页大小(默认20,最大100)"
// @Success      200 {object} response.Response{data=dto.ListOrdersResponse}
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	customerID := middleware.MustGetCustomerID(c)

	result, err := h.listOrdersUseCase.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		CustomerID: customerID,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.OrderSummary, len(result.List))
	for i, o := range result.List {
		list[i] = dto.OrderSummary{
			OrderID:   o.OrderID,
			OrderNo:   o.OrderNo,
			Total:     o.Total,
			TotalYuan: o.TotalYuan,
			ItemCount: o.ItemCount,
			CreatedAt: o.CreatedAt,
		}
	}

	response.Success(c, &dto.ListOrdersResponse{
		List:       list,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// GetOrder 订单详情
// @Summary      订单详情
// @Description  返回订单的行项目明细,带Redis缓存(24小时),只能查自己的订单
// @Tags         订单模块
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderDetailResponse}
// @Failure      200 {object} response.Response "code=40403 订单不存在"
// @Router       /orders/{id} [get]
//
// 说明:查别的顾客的订单同样返回40403,
// 对外不区分"不存在"和"不是你的",避免泄露订单ID的占用情况
func (h *OrderHandler) GetOrder(c *gin.Context) {
	// 1. 解析路径参数
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "订单ID格式错误")
		return
	}

	customerID := middleware.MustGetCustomerID(c)

	// 2. 调用应用层用例(缓存逻辑在用例内部)
	result, err := h.getOrderUseCase.Execute(c.Request.Context(), apporder.GetOrderRequest{
		CustomerID: customerID,
		OrderID:    uint(orderID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// 3. 构建HTTP响应
	items := make([]dto.OrderDetailItem, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.OrderDetailItem{
			LineNum:   item.LineNum,
			BookID:    item.BookID,
			Title:     item.Title,
			Price:     item.Price,
			PriceYuan: item.PriceYuan,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}

	response.Success(c, &dto.OrderDetailResponse{
		OrderID:   result.OrderID,
		OrderNo:   result.OrderNo,
		Total:     result.Total,
		TotalYuan: result.TotalYuan,
		Items:     items,
		CreatedAt: result.CreatedAt,
	})
}
