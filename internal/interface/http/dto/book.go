package dto

import "fmt"

// ListBooksRequest HTTP图书列表请求
// validator tag说明:
// - omitempty: 可选字段,缺省走默认值(第1页,每页20条)
// - oneof: 枚举校验,排序方式只接受白名单里的取值
type ListBooksRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc created_at_desc" example:"created_at_desc"`
}

// BookListItem HTTP图书列表项
// 列表查询时不返回Description字段(减少数据传输量)
type BookListItem struct {
	ID              uint     `json:"id" example:"1"`
	ISBN            string   `json:"isbn" example:"9787115428028"`
	Title           string   `json:"title" example:"Go语言实战"`
	Authors         []string `json:"authors"`
	Tags            []string `json:"tags"`
	Publisher       string   `json:"publisher" example:"人民邮电出版社"`
	Price           int64    `json:"price" example:"5900"`      // 定价(分)
	SalePrice       int64    `json:"sale_price" example:"4900"` // 当前售价(分),有促销时为促销价
	SalePriceYuan   string   `json:"sale_price_yuan" example:"49.00"`
	PromotionalText string   `json:"promotional_text,omitempty" example:"双11特惠"`
	CoverURL        string   `json:"cover_url" example:"https://example.com/cover.jpg"`
	CreatedAt       string   `json:"created_at" example:"2024-01-15 10:30:00"`
}

// ListBooksResponse HTTP图书列表响应
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total" example:"100"`
	Page       int            `json:"page" example:"1"`
	PageSize   int            `json:"page_size" example:"20"`
	TotalPages int            `json:"total_pages" example:"5"`
}

// FormatPriceYuan 格式化价格(分→元)
// 工具函数:将价格从分转换为元的字符串表示
// 例如:5900分 → "59.00"
func FormatPriceYuan(priceFen int64) string {
	yuan := float64(priceFen) / 100.0
	return fmt.Sprintf("%.2f", yuan)
}
