package order

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/chenxi/bookshop/internal/domain/book"
)

// Order 订单实体(聚合根)
// 教学要点:
// 1. Order是聚合根,LineItem是子实体,必须通过Order访问
// 2. CustomerID是Cookie派生的不透明顾客标识(UUID),不是用户表外键:
//    租户隔离由存储上下文按它过滤,订单对其他顾客整体不可见
// 3. Total价格冗余存储(避免重复计算,防止改价攻击),
//    校验规则会核对它与明细合计一致
// 4. 订单一经落库视为不可变:没有更新路径,也不会被硬删除
type Order struct {
	ID         uint
	OrderNo    string     `validate:"required"` // 订单号(业务主键,全局唯一)
	CustomerID uuid.UUID  // 归属顾客标识
	Total      int64      `validate:"gte=0"` // 订单总金额(分),冗余字段
	Items      []LineItem `validate:"dive"`  // 订单明细(聚合内的子实体)
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineItem 订单明细行
// 教学要点:
// 1. Price/Quantity是"下单时"的快照,与图书的现价彻底解耦:
//    商家之后改价、上促销,历史订单金额不变
// 2. BookID是限制删除(RESTRICT)的外键:有订单行引用的图书不允许
//    被硬删除(下架走软删除标记)
// 3. Book是展示用的导航属性,读取订单时按需预加载,可能为nil
type LineItem struct {
	ID       uint
	OrderID  uint  // 所属订单ID
	LineNum  int   `validate:"gte=1"`            // 行号(从1开始,保留录入顺序)
	BookID   uint  `validate:"required"`         // 图书ID
	Price    int64 `validate:"gte=1,lte=999999"` // 下单时的单价(分)
	Quantity int   `validate:"gte=1,lte=999"`    // 购买数量

	Book *book.Book `validate:"-"` // 导航属性(仅展示,不参与校验)
}

// NewOrder 创建新订单(工厂方法)
// 教学要点:
// 1. 工厂方法封装创建逻辑:生成订单号、按录入顺序编行号、核算总额
// 2. 调用方只需给出顾客标识和明细行(BookID/Price/Quantity)
func NewOrder(customerID uuid.UUID, items []LineItem) *Order {
	now := time.Now()
	o := &Order{
		OrderNo:    GenerateOrderNo(),
		CustomerID: customerID,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := range o.Items {
		o.Items[i].LineNum = i + 1
	}
	o.Total = o.CalculateTotal()
	return o
}

// CalculateTotal 按明细行计算订单总金额
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// IsOwnedBy 检查订单是否属于指定顾客
// 正常读路径不需要它(存储上下文已按顾客过滤),留给跳过过滤的
// 管理工具做二次确认
func (o *Order) IsOwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}

// GenerateOrderNo 生成订单号
// 教学要点:订单号设计原则
// 1. 全局唯一(避免冲突)
// 2. 时间有序(便于分库分表)
// 3. 不可预测(防止恶意遍历)
//
// 格式:ORD + 时间戳(秒) + 6位随机数
// 示例:ORD1699248000123456
func GenerateOrderNo() string {
	timestamp := time.Now().Unix()
	random := rand.Intn(1000000) // 6位随机数
	return fmt.Sprintf("ORD%d%06d", timestamp, random)
}
