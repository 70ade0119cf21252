package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 教学说明：集成测试辅助工具
// 这些测试打真实的HTTP接口,需要先把服务跑起来:
//
//	go run ./cmd/seed   # 灌入演示书目
//	go run ./cmd/api    # 启动服务
//	go test ./test/integration/
//
// 服务不在线时测试整体跳过(requireServer),不会红掉CI

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// HealthURL 健康检查URL(探活用)
	HealthURL = "http://localhost:8080/health"
	// Timeout 单个请求的超时上限
	Timeout = 10 * time.Second
)

// Response 服务端统一信封,Data留作原始JSON由各用例自行解码
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FieldErrorData 校验失败的单字段明细
type FieldErrorData struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorsData 校验失败响应(code=42200)的Data负载
type ValidationErrorsData struct {
	Errors []FieldErrorData `json:"errors"`
}

// BookItem 书目接口返回的一本书
type BookItem struct {
	ID              uint     `json:"id"`
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Tags            []string `json:"tags"`
	Publisher       string   `json:"publisher"`
	Price           int64    `json:"price"`
	SalePrice       int64    `json:"sale_price"`
	SalePriceYuan   string   `json:"sale_price_yuan"`
	PromotionalText string   `json:"promotional_text"`
}

// BookListData 书目接口的分页负载
type BookListData struct {
	List       []BookItem `json:"list"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// OrderData 下单响应数据
type OrderData struct {
	OrderID   uint   `json:"order_id"`
	OrderNo   string `json:"order_no"`
	Total     int64  `json:"total"`
	TotalYuan string `json:"total_yuan"`
	CreatedAt string `json:"created_at"`
}

// OrderSummary 订单列表项
type OrderSummary struct {
	OrderID   uint   `json:"order_id"`
	OrderNo   string `json:"order_no"`
	Total     int64  `json:"total"`
	TotalYuan string `json:"total_yuan"`
	ItemCount int    `json:"item_count"`
	CreatedAt string `json:"created_at"`
}

// OrderListData 订单列表响应数据
type OrderListData struct {
	List       []OrderSummary `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// OrderDetailItem 订单详情行项目
type OrderDetailItem struct {
	LineNum   int    `json:"line_num"`
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	PriceYuan string `json:"price_yuan"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// OrderDetailData 订单详情响应数据
type OrderDetailData struct {
	OrderID   uint              `json:"order_id"`
	OrderNo   string            `json:"order_no"`
	Total     int64             `json:"total"`
	TotalYuan string            `json:"total_yuan"`
	Items     []OrderDetailItem `json:"items"`
	CreatedAt string            `json:"created_at"`
}

// Customer 一位顾客的视角
//
// 教学说明：
// 本店没有注册登录,身份是第一次请求时服务端种下的Cookie。
// 每个Customer持有独立的Cookie罐,new一个就是换一位顾客,
// 租户隔离测试靠的就是两个Cookie罐互不相识
type Customer struct {
	http *http.Client
}

// NewCustomer 以全新身份(空Cookie罐)开始访问
func NewCustomer(t *testing.T) *Customer {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err, "创建Cookie罐失败")
	return &Customer{http: &http.Client{Jar: jar, Timeout: Timeout}}
}

// PostJSON 发送POST请求并解析统一响应
func (c *Customer) PostJSON(t *testing.T, url string, data interface{}) *Response {
	t.Helper()

	jsonData, err := json.Marshal(data)
	require.NoError(t, err, "请求体序列化出错")

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	require.NoError(t, err, "构造请求出错")
	req.Header.Set("Content-Type", "application/json")

	return c.do(t, req)
}

// GetJSON 发送GET请求并解析统一响应
func (c *Customer) GetJSON(t *testing.T, url string) *Response {
	t.Helper()

	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err, "构造请求出错")

	return c.do(t, req)
}

func (c *Customer) do(t *testing.T, req *http.Request) *Response {
	t.Helper()

	resp, err := c.http.Do(req)
	require.NoError(t, err, "请求没发出去")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读响应体出错")

	var result Response
	err = json.Unmarshal(body, &result)
	require.NoError(t, err, "响应不是合法JSON: %s", string(body))

	return &result
}

// DecodeData 把响应的Data解析到目标结构
func DecodeData(t *testing.T, resp *Response, out interface{}) {
	t.Helper()

	require.NotEmpty(t, resp.Data, "响应Data为空: code=%d message=%s", resp.Code, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, out), "解析Data失败: %s", string(resp.Data))
}

// requireServer 服务不在线时跳过整个测试
func requireServer(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(HealthURL)
	if err != nil {
		t.Skipf("服务未启动,跳过集成测试: %v", err)
	}
	resp.Body.Close()
}

// requireCatalog 取在售书目,书不够时跳过
// 书目由cmd/seed灌入,这里不造数据:集成测试只用顾客能用的接口
func requireCatalog(t *testing.T, c *Customer, atLeast int) []BookItem {
	t.Helper()

	resp := c.GetJSON(t, BaseURL+"/books?page_size=100")
	require.Equal(t, 0, resp.Code, "查询书目失败: %s", resp.Message)

	var data BookListData
	DecodeData(t, resp, &data)
	if len(data.List) < atLeast {
		t.Skipf("在售书目不足%d本(现有%d),请先运行 go run ./cmd/seed", atLeast, len(data.List))
	}
	return data.List
}

// PlaceOrderItem 下单请求的明细项
type PlaceOrderItem struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

// placeOrder 下一张订单并断言成功,返回下单响应
func placeOrder(t *testing.T, c *Customer, items []PlaceOrderItem) *OrderData {
	t.Helper()

	resp := c.PostJSON(t, BaseURL+"/orders", map[string]interface{}{
		"accept_terms": true,
		"items":        items,
	})
	require.Equal(t, 0, resp.Code, "下单失败: %s", resp.Message)

	var data OrderData
	DecodeData(t, resp, &data)
	return &data
}
