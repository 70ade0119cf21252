package dto

// PlaceOrderRequest HTTP下单请求
// validator tag说明:
// - accept_terms用required校验:bool零值false会被binding拒绝,
//   等价于"必须勾选服务条款",不勾选连用例都进不去
// - dive: 对items切片逐元素应用子字段校验
type PlaceOrderRequest struct {
	AcceptTerms bool                    `json:"accept_terms" binding:"required" example:"true"`
	Items       []PlaceOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrderItemRequest 订单明细项
type PlaceOrderItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=999" example:"2"`
}

// PlaceOrderResponse HTTP下单响应
type PlaceOrderResponse struct {
	OrderID   uint   `json:"order_id" example:"1"`
	OrderNo   string `json:"order_no" example:"ORD1699248000123456"`
	Total     int64  `json:"total" example:"11800"`
	TotalYuan string `json:"total_yuan" example:"118.00"`
	CreatedAt string `json:"created_at" example:"2024-11-06 10:30:00"`
}

// ListOrdersRequest HTTP订单列表请求
type ListOrdersRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// OrderSummary HTTP订单列表项
// 列表只返回概要,行项目明细走详情接口
type OrderSummary struct {
	OrderID   uint   `json:"order_id" example:"1"`
	OrderNo   string `json:"order_no" example:"ORD1699248000123456"`
	Total     int64  `json:"total" example:"11800"`
	TotalYuan string `json:"total_yuan" example:"118.00"`
	ItemCount int    `json:"item_count" example:"3"`
	CreatedAt string `json:"created_at" example:"2024-11-06 10:30:00"`
}

// ListOrdersResponse HTTP订单列表响应
type ListOrdersResponse struct {
	List       []OrderSummary `json:"list"`
	Total      int64          `json:"total" example:"8"`
	Page       int            `json:"page" example:"1"`
	PageSize   int            `json:"page_size" example:"20"`
	TotalPages int            `json:"total_pages" example:"1"`
}

// OrderDetailResponse HTTP订单详情响应
type OrderDetailResponse struct {
	OrderID   uint              `json:"order_id" example:"1"`
	OrderNo   string            `json:"order_no" example:"ORD1699248000123456"`
	Total     int64             `json:"total" example:"11800"`
	TotalYuan string            `json:"total_yuan" example:"118.00"`
	Items     []OrderDetailItem `json:"items"`
	CreatedAt string            `json:"created_at" example:"2024-11-06 10:30:00"`
}

// OrderDetailItem 订单行项目
// Price是下单时锁定的成交单价,图书后来改价或下架都不影响已有订单
type OrderDetailItem struct {
	LineNum   int    `json:"line_num" example:"1"`
	BookID    uint   `json:"book_id" example:"1"`
	Title     string `json:"title" example:"Go语言实战"`
	Price     int64  `json:"price" example:"5900"`
	PriceYuan string `json:"price_yuan" example:"59.00"`
	Quantity  int    `json:"quantity" example:"2"`
	Subtotal  int64  `json:"subtotal" example:"11800"`
}
