package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CustomerCookieName 顾客身份Cookie名
	CustomerCookieName = "bookshop_customer"

	// customerCookieMaxAge Cookie有效期:一年(秒)
	customerCookieMaxAge = 365 * 24 * 60 * 60

	// contextKeyCustomerID gin.Context中存放顾客ID的键
	contextKeyCustomerID = "customer_id"
)

// CustomerIdentity 顾客身份中间件
// 设计说明:
// 1. 本店没有注册登录:第一次来访就发一个uuid Cookie,此后靠它认人
// 2. Cookie缺失或内容非法时现场补发新身份,请求照常继续
//    (游客不需要任何前置步骤就能浏览和下单)
// 3. 下游Handler通过MustGetCustomerID(c)取身份,
//    订单的租户过滤以这个ID为准:换个浏览器就是另一位顾客
//
// DON'T(错误做法):
// - 不要让客户端在URL参数里自报顾客ID,
//   否则任何人改个参数就能翻看别人的订单
func CustomerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolveCustomerID(c)
		c.Set(contextKeyCustomerID, id)
		c.Next()
	}
}

// resolveCustomerID 从Cookie解析顾客ID,解析不出就补发
func resolveCustomerID(c *gin.Context) uuid.UUID {
	raw, err := c.Cookie(CustomerCookieName)
	if err == nil {
		if id, parseErr := uuid.Parse(raw); parseErr == nil && id != uuid.Nil {
			return id
		}
	}

	// 新顾客(或Cookie被篡改):发一个全新身份
	// HttpOnly防止脚本读取,路径"/"覆盖全站
	id := uuid.New()
	c.SetCookie(CustomerCookieName, id.String(), customerCookieMaxAge, "/", "", false, true)
	return id
}

// GetCustomerID 从Context获取顾客ID
// 第二个返回值表示中间件是否已注入身份
func GetCustomerID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(contextKeyCustomerID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// MustGetCustomerID 从Context获取顾客ID(不存在则panic)
// 说明:用于挂在CustomerIdentity()之后的Handler,
// 中间件保证每个请求都有身份,取不到属于接线错误
func MustGetCustomerID(c *gin.Context) uuid.UUID {
	id, ok := GetCustomerID(c)
	if !ok {
		panic("customer_id not found in context")
	}
	return id
}
