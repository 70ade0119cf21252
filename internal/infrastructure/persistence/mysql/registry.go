package mysql

import (
	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/domain/order"
	"github.com/chenxi/bookshop/internal/domain/validation"
)

// newValidationRegistry 组装校验注册表
// 种类键与规则的绑定集中在这一处;新增实体种类时在此登记,
// 存储上下文按键分发,不感知具体规则
func newValidationRegistry() *validation.Registry {
	r := validation.NewRegistry()
	r.Register(book.KindBook, book.ValidateBook)
	r.Register(book.KindAuthor, book.ValidateAuthor)
	r.Register(book.KindTag, book.ValidateTag)
	r.Register(book.KindPriceOffer, book.ValidatePriceOffer)
	r.Register(order.KindOrder, order.ValidateOrder)
	return r
}
