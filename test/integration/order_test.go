package integration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：订单模块集成测试
//
// 订单模块是本项目的核心，验证以下关键行为：
// 1. 下单三路结果：成功 / 校验未通过(42200,逐字段明细) / 参数错误(40900)
// 2. 成交价快照：总额按服务端当前售价核算,与客户端无关
// 3. 租户隔离：两位顾客(两个Cookie罐)互相看不到对方的订单
// 4. "不存在"与"不是你的"对外同一个错误码,不泄露订单占用情况

// TestPlaceOrderAndQueryBack 测试下单与回查的完整链路
func TestPlaceOrderAndQueryBack(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	books := requireCatalog(t, c, 2)

	first, second := books[0], books[1]
	placed := placeOrder(t, c, []PlaceOrderItem{
		{BookID: first.ID, Quantity: 2},
		{BookID: second.ID, Quantity: 1},
	})

	// 下单响应:订单号格式与服务端核算的总额
	assert.NotZero(t, placed.OrderID)
	assert.True(t, strings.HasPrefix(placed.OrderNo, "ORD"), "订单号应以ORD开头: %s", placed.OrderNo)
	wantTotal := first.SalePrice*2 + second.SalePrice*1
	assert.Equal(t, wantTotal, placed.Total, "总额=Σ当前售价×数量(促销价生效)")
	assert.Equal(t, fmt.Sprintf("%.2f", float64(wantTotal)/100.0), placed.TotalYuan)

	t.Logf("✓ 下单成功,订单号: %s, 总额: %s元", placed.OrderNo, placed.TotalYuan)

	t.Run("订单详情逐行可查", func(t *testing.T) {
		resp := c.GetJSON(t, fmt.Sprintf("%s/orders/%d", BaseURL, placed.OrderID))
		require.Equal(t, 0, resp.Code, "查详情失败: %s", resp.Message)

		var detail OrderDetailData
		DecodeData(t, resp, &detail)

		assert.Equal(t, placed.OrderNo, detail.OrderNo)
		assert.Equal(t, placed.Total, detail.Total)
		require.Len(t, detail.Items, 2)

		// 行号保留录入顺序
		assert.Equal(t, 1, detail.Items[0].LineNum)
		assert.Equal(t, first.ID, detail.Items[0].BookID)
		assert.Equal(t, first.Title, detail.Items[0].Title)
		assert.Equal(t, first.SalePrice, detail.Items[0].Price, "行单价是下单时的售价快照")
		assert.Equal(t, 2, detail.Items[0].Quantity)
		assert.Equal(t, first.SalePrice*2, detail.Items[0].Subtotal)

		assert.Equal(t, 2, detail.Items[1].LineNum)
		assert.Equal(t, second.ID, detail.Items[1].BookID)

		// 详情带Redis缓存,再查一次结果必须一致(命中缓存的路径)
		resp = c.GetJSON(t, fmt.Sprintf("%s/orders/%d", BaseURL, placed.OrderID))
		require.Equal(t, 0, resp.Code)
		var cached OrderDetailData
		DecodeData(t, resp, &cached)
		assert.Equal(t, detail, cached, "缓存命中与回源结果一致")
	})

	t.Run("我的订单列表可见", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/orders")
		require.Equal(t, 0, resp.Code)

		var list OrderListData
		DecodeData(t, resp, &list)
		require.NotEmpty(t, list.List)

		// 最新的订单在最前
		newest := list.List[0]
		assert.Equal(t, placed.OrderNo, newest.OrderNo)
		assert.Equal(t, placed.Total, newest.Total)
		assert.Equal(t, 2, newest.ItemCount)
	})
}

// TestPlaceOrderParamValidation 测试下单参数验证(binding层,40900)
func TestPlaceOrderParamValidation(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	books := requireCatalog(t, c, 1)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{
			"未勾选服务条款",
			map[string]interface{}{
				"accept_terms": false,
				"items":        []PlaceOrderItem{{BookID: books[0].ID, Quantity: 1}},
			},
		},
		{
			"明细为空",
			map[string]interface{}{
				"accept_terms": true,
				"items":        []PlaceOrderItem{},
			},
		},
		{
			"数量为0",
			map[string]interface{}{
				"accept_terms": true,
				"items":        []PlaceOrderItem{{BookID: books[0].ID, Quantity: 0}},
			},
		},
		{
			"数量超上限",
			map[string]interface{}{
				"accept_terms": true,
				"items":        []PlaceOrderItem{{BookID: books[0].ID, Quantity: 1000}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := c.PostJSON(t, BaseURL+"/orders", tc.body)
			assert.Equal(t, 40900, resp.Code, "应该在参数层被打回: %s", resp.Message)
		})
	}
}

// TestPlaceOrderValidationFailure 测试校验门禁(42200,字段明细作为数据返回)
func TestPlaceOrderValidationFailure(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	books := requireCatalog(t, c, 1)

	// 一行合法 + 一行指向不存在的图书:整单被拒,明细指认坏行
	resp := c.PostJSON(t, BaseURL+"/orders", map[string]interface{}{
		"accept_terms": true,
		"items": []PlaceOrderItem{
			{BookID: books[0].ID, Quantity: 1},
			{BookID: 99999999, Quantity: 1},
		},
	})
	require.Equal(t, 42200, resp.Code, "校验未通过返回42200: %s", resp.Message)

	var data ValidationErrorsData
	DecodeData(t, resp, &data)
	require.NotEmpty(t, data.Errors)
	assert.Equal(t, "Items[1].BookID", data.Errors[0].Field, "失败定位到具体行")
	assert.Contains(t, data.Errors[0].Message, "不存在")

	// 被拒的单不产生任何订单
	listResp := c.GetJSON(t, BaseURL+"/orders")
	require.Equal(t, 0, listResp.Code)
	var list OrderListData
	DecodeData(t, listResp, &list)
	assert.Zero(t, list.Total, "校验失败不应留下半张订单")
}

// TestOrdersIsolatedBetweenCustomers 测试顾客间的订单隔离
func TestOrdersIsolatedBetweenCustomers(t *testing.T) {
	requireServer(t)

	alice := NewCustomer(t)
	bob := NewCustomer(t)
	books := requireCatalog(t, alice, 1)

	placed := placeOrder(t, alice, []PlaceOrderItem{{BookID: books[0].ID, Quantity: 1}})

	t.Run("列表互不可见", func(t *testing.T) {
		resp := bob.GetJSON(t, BaseURL+"/orders")
		require.Equal(t, 0, resp.Code)

		var list OrderListData
		DecodeData(t, resp, &list)
		assert.Zero(t, list.Total, "新顾客的订单列表应该是空的")
		for _, o := range list.List {
			assert.NotEqual(t, placed.OrderNo, o.OrderNo)
		}
	})

	t.Run("按ID也查不到别人的订单", func(t *testing.T) {
		resp := bob.GetJSON(t, fmt.Sprintf("%s/orders/%d", BaseURL, placed.OrderID))
		assert.Equal(t, 40403, resp.Code, "别人的订单与不存在同等对待")
	})

	t.Run("本人依然可查", func(t *testing.T) {
		resp := alice.GetJSON(t, fmt.Sprintf("%s/orders/%d", BaseURL, placed.OrderID))
		require.Equal(t, 0, resp.Code)

		var detail OrderDetailData
		DecodeData(t, resp, &detail)
		assert.Equal(t, placed.OrderNo, detail.OrderNo)
	})
}

// TestOrderDetailNotFound 测试订单详情的错误分支
func TestOrderDetailNotFound(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)

	t.Run("不存在的订单ID", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/orders/999999999")
		assert.Equal(t, 40403, resp.Code)
	})

	t.Run("非数字的订单ID", func(t *testing.T) {
		resp := c.GetJSON(t, BaseURL+"/orders/abc")
		assert.Equal(t, 40900, resp.Code)
	})
}

// TestCustomerIdentitySticky 测试Cookie身份的连续性
// 同一个Cookie罐连续请求,身份不变:下单和回查落在同一位顾客名下
func TestCustomerIdentitySticky(t *testing.T) {
	requireServer(t)
	c := NewCustomer(t)
	books := requireCatalog(t, c, 1)

	before := c.GetJSON(t, BaseURL+"/orders")
	require.Equal(t, 0, before.Code)
	var beforeList OrderListData
	DecodeData(t, before, &beforeList)

	placeOrder(t, c, []PlaceOrderItem{{BookID: books[0].ID, Quantity: 1}})

	after := c.GetJSON(t, BaseURL+"/orders")
	require.Equal(t, 0, after.Code)
	var afterList OrderListData
	DecodeData(t, after, &afterList)

	assert.Equal(t, beforeList.Total+1, afterList.Total, "同一身份下单后订单数+1")
}
