package integration

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：图书浏览集成测试
//
// 测试场景覆盖：
// 1. 书目列表查询（游客即顾客,无需任何凭证）
// 2. 分页、排序、关键词搜索
// 3. 促销价展示（sale_price与定价的关系）
// 4. 查询参数验证
//
// 书目维护不走HTTP（详见cmd/seed），测试只消费只读接口

// TestBrowseBooks 测试书目浏览
func TestBrowseBooks(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	books := requireCatalog(t, c, 1)

	t.Run("默认分页浏览", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/books")
		require.Equal(t, 0, resp.Code, "查询应该成功: %s", resp.Message)

		var data BookListData
		DecodeData(t, resp, &data)

		assert.Equal(t, 1, data.Page, "默认第1页")
		assert.Equal(t, 20, data.PageSize, "默认每页20条")
		assert.NotEmpty(t, data.List)
		assert.GreaterOrEqual(t, data.Total, int64(len(data.List)))

		t.Logf("✓ 在售书目%d本", data.Total)
	})

	t.Run("价格字段自洽", func(t *testing.T) {
		for _, b := range books {
			assert.NotZero(t, b.ID)
			assert.NotEmpty(t, b.Title)
			// 售价要么等于定价,要么是更低的促销价
			assert.LessOrEqual(t, b.SalePrice, b.Price, "促销价不应高于定价: %s", b.Title)
			if b.SalePrice < b.Price {
				assert.NotEmpty(t, b.PromotionalText, "有促销价就该有促销文案: %s", b.Title)
			}
			// 分→元格式化
			assert.Equal(t, fmt.Sprintf("%.2f", float64(b.SalePrice)/100.0), b.SalePriceYuan)
		}
	})

	t.Run("分页翻页", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/books?page=1&page_size=2")
		require.Equal(t, 0, resp.Code)

		var page1 BookListData
		DecodeData(t, resp, &page1)

		assert.Equal(t, 2, page1.PageSize)
		assert.LessOrEqual(t, len(page1.List), 2)

		wantPages := int(page1.Total) / 2
		if int(page1.Total)%2 != 0 {
			wantPages++
		}
		assert.Equal(t, wantPages, page1.TotalPages, "总页数=总数/页大小向上取整")

		if page1.Total > 2 {
			resp = c.GetJSON(t, BaseURL+"/books?page=2&page_size=2")
			require.Equal(t, 0, resp.Code)

			var page2 BookListData
			DecodeData(t, resp, &page2)
			require.NotEmpty(t, page2.List)
			assert.NotEqual(t, page1.List[0].ID, page2.List[0].ID, "翻页不应重复")
		}
	})
}

// TestBrowseBooksSort 测试排序方式
func TestBrowseBooksSort(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	requireCatalog(t, c, 2)

	t.Run("价格升序", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/books?sort_by=price_asc&page_size=100")
		require.Equal(t, 0, resp.Code)

		var data BookListData
		DecodeData(t, resp, &data)
		for i := 1; i < len(data.List); i++ {
			assert.LessOrEqual(t, data.List[i-1].Price, data.List[i].Price, "定价应该非降序")
		}
	})

	t.Run("价格降序", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/books?sort_by=price_desc&page_size=100")
		require.Equal(t, 0, resp.Code)

		var data BookListData
		DecodeData(t, resp, &data)
		for i := 1; i < len(data.List); i++ {
			assert.GreaterOrEqual(t, data.List[i-1].Price, data.List[i].Price, "定价应该非升序")
		}
	})
}

// TestBrowseBooksKeyword 测试关键词搜索
func TestBrowseBooksKeyword(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	books := requireCatalog(t, c, 1)

	t.Run("按完整标题搜索", func(t *testing.T) {
		want := books[0]
		resp := c.GetJSON(t, BaseURL+"/books?keyword="+url.QueryEscape(want.Title))
		require.Equal(t, 0, resp.Code)

		var data BookListData
		DecodeData(t, resp, &data)
		require.NotEmpty(t, data.List, "按自己的标题搜自己至少命中一条")

		// 命中的每一条都确实与关键词沾边(标题/出版社/ISBN三选一)
		for _, b := range data.List {
			matched := strings.Contains(b.Title, want.Title) ||
				strings.Contains(b.Publisher, want.Title) ||
				strings.Contains(b.ISBN, want.Title)
			assert.True(t, matched, "命中项与关键词无关: %s", b.Title)
		}
	})

	t.Run("按ISBN搜索", func(t *testing.T) {
		want := books[0]
		resp := c.GetJSON(t, BaseURL+"/books?keyword="+want.ISBN)
		require.Equal(t, 0, resp.Code)

		var data BookListData
		DecodeData(t, resp, &data)
		require.Len(t, data.List, 1, "ISBN全局唯一,精确命中一条")
		assert.Equal(t, want.ID, data.List[0].ID)
		assert.EqualValues(t, 1, data.Total)
	})

	t.Run("无匹配关键词", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/books?keyword="+url.QueryEscape("肯定搜不到的关键词xyzzy"))
		require.Equal(t, 0, resp.Code)

		var data BookListData
		DecodeData(t, resp, &data)
		assert.Empty(t, data.List)
		assert.Zero(t, data.Total)
	})
}

// TestBrowseBooksParamValidation 测试查询参数验证
func TestBrowseBooksParamValidation(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)

	cases := []struct {
		name  string
		query string
	}{
		{"页码为0", "?page=0"},
		{"页大小超上限", "?page_size=101"},
		{"排序方式不在白名单", "?sort_by=stock_desc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := c.GetJSON(t, BaseURL+"/books"+tc.query)
			assert.Equal(t, 40900, resp.Code, "非法参数应该被打回: %s", resp.Message)
		})
	}
}
