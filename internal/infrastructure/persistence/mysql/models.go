package mysql

import (
	"time"

	"github.com/google/uuid"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/domain/order"
)

// GORM数据模型
// 设计说明：
// 1. 这是infrastructure层的数据模型(带GORM tag),domain层实体不依赖GORM,
//    两者通过本文件的转换函数互转
// 2. 软删除用显式的SoftDeleted布尔列,不用gorm.DeletedAt:
//    下架可见性是查询过滤策略的一部分,由存储上下文的访问器显式拼接谓词,
//    而不是绑在ORM的软删除机制上;跳过过滤时也无需Unscoped这类特殊API
// 3. CustomerID存char(36)的UUID字符串:它是不透明的顾客标识,
//    不是任何表的外键(租户归属与认证体系解耦)

// BookModel GORM图书模型
type BookModel struct {
	ID          uint      `gorm:"primaryKey"`
	ISBN        string    `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title       string    `gorm:"index:idx_search;size:200;not null;comment:书名"` // 搜索索引
	Publisher   string    `gorm:"size:100;not null;comment:出版社"`
	Price       int64     `gorm:"index:idx_list;not null;comment:定价(分)"` // 排序索引
	Description string    `gorm:"type:text;comment:图书描述"`
	CoverURL    string    `gorm:"size:500;comment:封面图片URL"`
	PublishedAt time.Time `gorm:"comment:出版日期"`
	SoftDeleted bool      `gorm:"index;not null;default:false;comment:软删除标记(1=已下架)"`

	// 关联:作者走带复合主键的联结模型(SetupJoinTable),标签走普通联结表;
	// 联结表外键级联删除,级联的只是联结行,不是作者/标签本身
	Authors   []AuthorModel    `gorm:"many2many:book_authors;joinForeignKey:BookID;joinReferences:AuthorID;constraint:OnDelete:CASCADE"`
	Tags      []TagModel       `gorm:"many2many:book_tags;constraint:OnDelete:CASCADE"`
	Promotion *PriceOfferModel `gorm:"foreignKey:BookID"`

	CreatedAt time.Time `gorm:"index:idx_list;comment:创建时间"` // 排序索引
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// AuthorModel GORM作者模型
type AuthorModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null;comment:作者名"`
}

// TableName 指定表名
func (AuthorModel) TableName() string {
	return "authors"
}

// BookAuthorModel 图书-作者联结模型
// 复合主键(BookID, AuthorID);通过SetupJoinTable接管many2many联结表,
// 使联结行成为可显式建模的实体而非ORM暗中生成的影子表
type BookAuthorModel struct {
	BookID   uint `gorm:"primaryKey;comment:图书ID"`
	AuthorID uint `gorm:"primaryKey;comment:作者ID"`
}

// TableName 指定表名
func (BookAuthorModel) TableName() string {
	return "book_authors"
}

// TagModel GORM标签模型
type TagModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;size:50;not null;comment:标签名"`
}

// TableName 指定表名
func (TagModel) TableName() string {
	return "tags"
}

// PriceOfferModel GORM促销价模型
// BookID唯一索引:每本图书至多一条促销价
type PriceOfferModel struct {
	ID              uint   `gorm:"primaryKey"`
	BookID          uint   `gorm:"uniqueIndex;not null;comment:图书ID"`
	NewPrice        int64  `gorm:"not null;comment:促销价(分)"`
	PromotionalText string `gorm:"size:200;not null;comment:促销文案"`
}

// TableName 指定表名
func (PriceOfferModel) TableName() string {
	return "price_offers"
}

// OrderModel GORM订单模型
// 教学要点:
// 1. 与LineItemModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)
// 3. CustomerID有普通索引:租户过滤的每次订单查询都会带上它
type OrderModel struct {
	ID         uint            `gorm:"primaryKey"`
	OrderNo    string          `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	CustomerID uuid.UUID       `gorm:"type:char(36);index;not null;comment:顾客标识"`
	Total      int64           `gorm:"not null;comment:订单总金额(分)"`
	Items      []LineItemModel `gorm:"foreignKey:OrderID"` // 一对多关联
	CreatedAt  time.Time       `gorm:"index;comment:创建时间"`
	UpdatedAt  time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// LineItemModel GORM订单明细模型
// 教学要点:
// 1. Price记录下单时的价格快照,与图书现价解耦
// 2. BookID外键声明为RESTRICT:有明细行引用的图书不允许被硬删除,
//    数据库会直接拒绝(报约束冲突),绝不级联
type LineItemModel struct {
	ID       uint  `gorm:"primaryKey"`
	OrderID  uint  `gorm:"index;not null;comment:订单ID"`
	LineNum  int   `gorm:"not null;comment:行号"`
	BookID   uint  `gorm:"index;not null;comment:图书ID"`
	Price    int64 `gorm:"not null;comment:下单时单价(分)"`
	Quantity int   `gorm:"not null;comment:购买数量"`

	Book *BookModel `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"` // 非拥有引用,仅查询
}

// TableName 指定表名
func (LineItemModel) TableName() string {
	return "line_items"
}

// =========================================
// domain实体 ↔ GORM模型 转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	m := &BookModel{
		ID:          b.ID,
		ISBN:        b.ISBN,
		Title:       b.Title,
		Publisher:   b.Publisher,
		Price:       b.Price,
		Description: b.Description,
		CoverURL:    b.CoverURL,
		PublishedAt: b.PublishedAt,
		SoftDeleted: b.SoftDeleted,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for i := range b.Authors {
		m.Authors = append(m.Authors, *toAuthorModel(&b.Authors[i]))
	}
	for i := range b.Tags {
		m.Tags = append(m.Tags, *toTagModel(&b.Tags[i]))
	}
	if b.Promotion != nil {
		m.Promotion = toPriceOfferModel(b.Promotion)
	}
	return m
}

func toBookEntity(m *BookModel) *book.Book {
	b := &book.Book{
		ID:          m.ID,
		ISBN:        m.ISBN,
		Title:       m.Title,
		Publisher:   m.Publisher,
		Price:       m.Price,
		Description: m.Description,
		CoverURL:    m.CoverURL,
		PublishedAt: m.PublishedAt,
		SoftDeleted: m.SoftDeleted,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i := range m.Authors {
		b.Authors = append(b.Authors, *toAuthorEntity(&m.Authors[i]))
	}
	for i := range m.Tags {
		b.Tags = append(b.Tags, *toTagEntity(&m.Tags[i]))
	}
	if m.Promotion != nil {
		b.Promotion = toPriceOfferEntity(m.Promotion)
	}
	return b
}

func toAuthorModel(a *book.Author) *AuthorModel {
	return &AuthorModel{ID: a.ID, Name: a.Name}
}

func toAuthorEntity(m *AuthorModel) *book.Author {
	return &book.Author{ID: m.ID, Name: m.Name}
}

func toTagModel(t *book.Tag) *TagModel {
	return &TagModel{ID: t.ID, Name: t.Name}
}

func toTagEntity(m *TagModel) *book.Tag {
	return &book.Tag{ID: m.ID, Name: m.Name}
}

func toPriceOfferModel(p *book.PriceOffer) *PriceOfferModel {
	return &PriceOfferModel{
		ID:              p.ID,
		BookID:          p.BookID,
		NewPrice:        p.NewPrice,
		PromotionalText: p.PromotionalText,
	}
}

func toPriceOfferEntity(m *PriceOfferModel) *book.PriceOffer {
	return &book.PriceOffer{
		ID:              m.ID,
		BookID:          m.BookID,
		NewPrice:        m.NewPrice,
		PromotionalText: m.PromotionalText,
	}
}

func toOrderModel(o *order.Order) *OrderModel {
	m := &OrderModel{
		ID:         o.ID,
		OrderNo:    o.OrderNo,
		CustomerID: o.CustomerID,
		Total:      o.Total,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for i := range o.Items {
		it := &o.Items[i]
		m.Items = append(m.Items, LineItemModel{
			ID:       it.ID,
			OrderID:  it.OrderID,
			LineNum:  it.LineNum,
			BookID:   it.BookID,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	return m
}

func toOrderEntity(m *OrderModel) *order.Order {
	o := &order.Order{
		ID:         m.ID,
		OrderNo:    m.OrderNo,
		CustomerID: m.CustomerID,
		Total:      m.Total,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	for i := range m.Items {
		im := &m.Items[i]
		item := order.LineItem{
			ID:       im.ID,
			OrderID:  im.OrderID,
			LineNum:  im.LineNum,
			BookID:   im.BookID,
			Price:    im.Price,
			Quantity: im.Quantity,
		}
		// 导航属性只在预加载过且图书未下架时携带:
		// 软删除的图书不允许经由任何正常读路径(包括关联预加载)露出
		if im.Book != nil && !im.Book.SoftDeleted {
			item.Book = toBookEntity(im.Book)
		}
		o.Items = append(o.Items, item)
	}
	return o
}
