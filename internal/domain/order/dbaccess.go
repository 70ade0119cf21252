package order

import (
	"context"

	"github.com/chenxi/bookshop/internal/domain/book"
)

// PlaceOrderDBAccess 下单流程的数据访问门面(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层基于存储上下文实现
// 2. 下单流程只需要两个很窄的能力:按ID批量查书、暂存新订单,
//    不暴露完整的存储上下文,避免工作流绕过校验门禁乱写
// 3. Add只暂存不落库:暂存和"带校验的保存"由工作流显式组合,
//    保证校验失败时订单不会出现在库里
type PlaceOrderDBAccess interface {
	// FindBooksByIDsWithPriceOffers 按ID批量查图书,联带当前促销价
	// 语义:
	// - 走被过滤的读路径:软删除的图书即使指名要也查不到
	// - 查不到的ID直接缺席于结果映射,不算错误(由调用方决定如何处置)
	// - 入参为空时返回空映射,不触发查询
	FindBooksByIDsWithPriceOffers(ctx context.Context, bookIDs []uint) (map[uint]*book.Book, error)

	// Add 将新订单(连同明细行)暂存进底层上下文的待保存集
	// 不做任何落库动作;调用方随后必须执行带校验的保存
	Add(o *Order)
}

// QueryOrdersDBAccess 订单查询的数据访问门面(列表与详情)
// 读路径天然限定在当前顾客:跨顾客的订单查起来就像不存在一样
type QueryOrdersDBAccess interface {
	// FindByID 按ID取订单,含按行号排序的明细
	// 当前顾客名下不存在该订单时返回ErrOrderNotFound
	FindByID(ctx context.Context, orderID uint) (*Order, error)

	// FindPage 分页取当前顾客的订单,最新在前
	// 返回(本页订单, 总数, 错误)
	FindPage(ctx context.Context, page, pageSize int) ([]*Order, int64, error)
}
