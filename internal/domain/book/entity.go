package book

import (
	"time"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是图书聚合的根实体,关联作者(多对多)、标签(多对多)和促销价(一对一)
// 2. 价格使用int64存储"分"为单位(避免浮点数精度问题)
// 3. ISBN作为业务唯一标识(数据库层保证唯一性)
// 4. SoftDeleted是软删除标记:下架的图书保留数据行,但对正常查询路径
//    整体不可见(由存储上下文的查询过滤强制保证,调用方无需自己过滤)
type Book struct {
	ID          uint
	ISBN        string `validate:"required"`          // ISBN号(国际标准书号)
	Title       string `validate:"required,max=200"`  // 书名
	Publisher   string `validate:"required,max=100"`  // 出版社
	Price       int64  `validate:"gte=1,lte=999999"`  // 定价(单位:分,1元=100分)
	Description string `validate:"max=5000"`          // 图书描述
	CoverURL    string `validate:"omitempty,max=500"` // 封面图片URL
	PublishedAt time.Time
	SoftDeleted bool // 软删除标记(true=已下架)

	Authors   []Author    `validate:"dive"` // 作者列表(多对多,联结表book_authors)
	Tags      []Tag       `validate:"dive"` // 标签列表(多对多)
	Promotion *PriceOffer // 当前促销价(一对一,可为空)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActualPrice 实际售价
// 有促销价时取促销价,否则取定价;下单时的单价快照以此为准
func (b *Book) ActualPrice() int64 {
	if b.Promotion != nil {
		return b.Promotion.NewPrice
	}
	return b.Price
}

// MarkDeleted 下架(软删除)
// 只改标记不删行:历史订单行仍然引用这本书
func (b *Book) MarkDeleted() {
	b.SoftDeleted = true
	b.UpdatedAt = time.Now()
}

// Restore 重新上架
func (b *Book) Restore() {
	b.SoftDeleted = false
	b.UpdatedAt = time.Now()
}

// Author 作者实体
// 通过联结实体BookAuthor(复合主键BookID+AuthorID)与图书关联
type Author struct {
	ID   uint
	Name string `validate:"required,max=100"`
}

// Tag 标签实体
type Tag struct {
	ID   uint
	Name string `validate:"required,max=50"`
}

// PriceOffer 促销价
// 每本图书至多一条(BookID唯一索引);只影响下单时的价格快照,
// 不回写历史订单
type PriceOffer struct {
	ID              uint
	BookID          uint
	NewPrice        int64  `validate:"gte=1,lte=999999"` // 促销价(分)
	PromotionalText string `validate:"required,max=200"` // 促销文案
}
