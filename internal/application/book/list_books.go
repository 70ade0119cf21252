package book

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/identity"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/tracing"
)

// tracerName 本服务在追踪系统中的标识
const tracerName = "bookshop-api"

// ListBooksUseCase 图书浏览用例
// 设计说明:
// 1. 支持分页、搜索、排序;下架图书从结果和总数里一并消失
// 2. 列表返回作者/标签/促销价,满足商品卡片展示,不含长描述
// 3. 售价按"促销价优先"展示,与下单捕获口径一致
type ListBooksUseCase struct {
	factory *mysql.StoreContextFactory
	log     *logger.Logger
}

// NewListBooksUseCase 创建图书浏览用例
func NewListBooksUseCase(factory *mysql.StoreContextFactory, log *logger.Logger) *ListBooksUseCase {
	return &ListBooksUseCase{
		factory: factory,
		log:     log,
	}
}

// ListBooksRequest 图书浏览请求DTO
type ListBooksRequest struct {
	CustomerID uuid.UUID // 顾客身份(由Cookie中间件注入)
	Page       int       // 页码(从1开始)
	PageSize   int       // 每页数量
	Keyword    string    // 搜索关键词(匹配标题、出版社、ISBN)
	SortBy     string    // 排序方式(price_asc, price_desc, created_at_desc)
}

// BookListItem 图书列表项DTO
type BookListItem struct {
	ID              uint     `json:"id"`
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Tags            []string `json:"tags"`
	Publisher       string   `json:"publisher"`
	Price           int64    `json:"price"`      // 定价(分)
	SalePrice       int64    `json:"sale_price"` // 当前售价(分,促销价优先)
	SalePriceYuan   string   `json:"sale_price_yuan"`
	PromotionalText string   `json:"promotional_text,omitempty"` // 有促销时的文案
	CoverURL        string   `json:"cover_url"`
	CreatedAt       string   `json:"created_at"`
}

// ListBooksResponse 图书浏览响应DTO
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Execute 执行图书浏览
// 学习要点:
// 1. 分页参数在入口钳一次:page≥1,pageSize落在1..100,缺省20
// 2. 软删除过滤由存储上下文强制,这里一行过滤代码都没有
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ListBooks")
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

	// 2. 查询
	store := uc.factory.NewContext(identity.Static(req.CustomerID))
	access := mysql.NewBrowseBooksDBAccess(store)

	books, total, err := access.Search(ctx, book.BrowseQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		SortBy:   req.SortBy,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// 3. 转换为DTO
	list := make([]BookListItem, len(books))
	for i, b := range books {
		authors := make([]string, len(b.Authors))
		for j, a := range b.Authors {
			authors[j] = a.Name
		}
		tags := make([]string, len(b.Tags))
		for j, t := range b.Tags {
			tags[j] = t.Name
		}

		item := BookListItem{
			ID:            b.ID,
			ISBN:          b.ISBN,
			Title:         b.Title,
			Authors:       authors,
			Tags:          tags,
			Publisher:     b.Publisher,
			Price:         b.Price,
			SalePrice:     b.ActualPrice(),
			SalePriceYuan: formatPrice(b.ActualPrice()),
			CoverURL:      b.CoverURL,
			CreatedAt:     b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if b.Promotion != nil {
			item.PromotionalText = b.Promotion.PromotionalText
		}
		list[i] = item
	}

	// 4. 总页数向上取整
	totalPages := (int(total) + req.PageSize - 1) / req.PageSize

	return &ListBooksResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// formatPrice 格式化价格(分→元)
func formatPrice(priceFen int64) string {
	yuan := float64(priceFen) / 100.0
	return fmt.Sprintf("%.2f", yuan)
}
