package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/chenxi/bookshop/internal/application/book"
	"github.com/chenxi/bookshop/internal/interface/http/dto"
	"github.com/chenxi/bookshop/internal/interface/http/middleware"
	apperrors "github.com/chenxi/bookshop/pkg/errors"
	"github.com/chenxi/bookshop/pkg/response"
)

// BookHandler 图书HTTP处理器
// 说明:书目没有写接口,上架/改价/下架都走运营工具(cmd/seed),
// 对外只开放浏览
type BookHandler struct {
	listBooksUseCase *appbook.ListBooksUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(listBooksUseCase *appbook.ListBooksUseCase) *BookHandler {
	return &BookHandler{
		listBooksUseCase: listBooksUseCase,
	}
}

// ListBooks 浏览书目
// @Summary      浏览书目
// @Description  分页浏览在售图书,支持关键词搜索和价格排序,已下架的书不会出现
// @Tags         图书模块
// @Produce      json
// @Param        page query int false "页码(默认1)"
// @Param        page_size query int false "每页大小(默认20,最大100)"
// @Param        keyword query string false "关键词(匹配书名/出版社/ISBN)"
// @Param        sort_by query string false "排序方式" Enums(price_asc, price_desc, created_at_desc)
// @Success      200 {object} response.Response{data=dto.ListBooksResponse}
// @Failure      200 {object} response.Response "code=40900 参数错误"
// @Router       /books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	// 2. 从Cookie中间件取顾客身份
	customerID := middleware.MustGetCustomerID(c)

	// 3. 调用应用层用例
	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		CustomerID: customerID,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Keyword:    req.Keyword,
		SortBy:     req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// 4. 构建HTTP响应
	list := make([]dto.BookListItem, len(result.List))
	for i, b := range result.List {
		list[i] = dto.BookListItem{
			ID:              b.ID,
			ISBN:            b.ISBN,
			Title:           b.Title,
			Authors:         b.Authors,
			Tags:            b.Tags,
			Publisher:       b.Publisher,
			Price:           b.Price,
			SalePrice:       b.SalePrice,
			SalePriceYuan:   b.SalePriceYuan,
			PromotionalText: b.PromotionalText,
			CoverURL:        b.CoverURL,
			CreatedAt:       b.CreatedAt,
		}
	}

	response.Success(c, &dto.ListBooksResponse{
		List:       list,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}
