package mysql

import (
	"context"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/domain/order"
	apperrors "github.com/chenxi/bookshop/pkg/errors"
)

// placeOrderDBAccess 下单用例的数据访问实现
// 只是对存储上下文的一层窄包装:读走过滤访问器,写走暂存,
// 什么时候落库由用例层调SaveChangesWithValidation决定
type placeOrderDBAccess struct {
	store *StoreContext
}

// NewPlaceOrderDBAccess 在给定存储上下文上构造下单数据访问
func NewPlaceOrderDBAccess(store *StoreContext) order.PlaceOrderDBAccess {
	return &placeOrderDBAccess{store: store}
}

// FindBooksByIDsWithPriceOffers 按ID批量取图书(带促销价)
// 返回map按图书ID索引;查不到的ID直接缺席,不占位、不报错,
// 调用方用逗号ok判断存在性。软删除的图书经由过滤查询同样缺席
func (a *placeOrderDBAccess) FindBooksByIDsWithPriceOffers(ctx context.Context, bookIDs []uint) (map[uint]*book.Book, error) {
	result := make(map[uint]*book.Book, len(bookIDs))
	if len(bookIDs) == 0 {
		return result, nil
	}

	var models []BookModel
	err := a.store.Books().WithContext(ctx).
		Preload("Promotion").
		Where("books.id IN ?", bookIDs).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "批量查询图书失败")
	}

	for i := range models {
		result[models[i].ID] = toBookEntity(&models[i])
	}
	return result, nil
}

// Add 暂存订单
// 只登记到待保存集,不产生任何SQL
func (a *placeOrderDBAccess) Add(o *order.Order) {
	a.store.Add(o)
}
