package book

import "context"

// BrowseQuery 图书浏览查询参数
type BrowseQuery struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词(匹配标题、出版社、ISBN)
	SortBy   string // 排序方式(price_asc, price_desc, created_at_desc)
}

// BrowseBooksDBAccess 图书浏览的数据访问门面
// 走被过滤的读路径:下架的图书在结果和总数里都不出现
type BrowseBooksDBAccess interface {
	// Search 按条件分页查询在售图书,联带作者/标签/促销价
	// 返回(本页图书, 总数, 错误)
	Search(ctx context.Context, q BrowseQuery) ([]*Book, int64, error)
}
