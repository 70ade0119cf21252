package mysql

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/domain/order"
	"github.com/chenxi/bookshop/internal/identity"
)

// TestFindBooksByIDsWithPriceOffers 下单取书:带促销价,缺席即不存在
func TestFindBooksByIDsWithPriceOffers(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	plain := testBook("9787115428028", "无促销的书", 5900)
	promoted := testBook("9787115424688", "有促销的书", 8900)
	promoted.Promotion = &book.PriceOffer{NewPrice: 6600, PromotionalText: "限时六折"}
	delisted := testBook("9787111558429", "已下架的书", 7900)
	delisted.SoftDeleted = true
	mustSaveBooks(t, f, plain, promoted, delisted)

	store := f.NewContext(identity.Static(uuid.New()))
	access := NewPlaceOrderDBAccess(store)

	got, err := access.FindBooksByIDsWithPriceOffers(ctx, []uint{plain.ID, promoted.ID, delisted.ID, 424242})
	require.NoError(t, err)

	// 映射只含找得到的:下架的、查无此ID的都不占键位
	require.Len(t, got, 2)
	require.Contains(t, got, plain.ID)
	require.Contains(t, got, promoted.ID)
	assert.NotContains(t, got, delisted.ID, "下架图书不得经由下单读路径露出")
	assert.NotContains(t, got, uint(424242))

	// 促销价联带加载,实际售价促销优先、定价兜底
	require.NotNil(t, got[promoted.ID].Promotion)
	assert.EqualValues(t, 6600, got[promoted.ID].ActualPrice())
	assert.Nil(t, got[plain.ID].Promotion)
	assert.EqualValues(t, 5900, got[plain.ID].ActualPrice())
}

// TestFindBooksByIDsEmptyInput 空入参直接返回空映射,不打数据库
func TestFindBooksByIDsEmptyInput(t *testing.T) {
	f := newTestFactory(t)
	store := f.NewContext(identity.Static(uuid.New()))
	access := NewPlaceOrderDBAccess(store)

	got, err := access.FindBooksByIDsWithPriceOffers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = access.FindBooksByIDsWithPriceOffers(context.Background(), []uint{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestPlaceOrderAccessAddOnlyStages Add只进待保存集,落库由保存统一执行
func TestPlaceOrderAccessAddOnlyStages(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	b := testBook("9787115428028", "在售", 5900)
	mustSaveBooks(t, f, b)

	customerID := uuid.New()
	store := f.NewContext(identity.Static(customerID))
	access := NewPlaceOrderDBAccess(store)

	o := order.NewOrder(customerID, []order.LineItem{{BookID: b.ID, Price: 5900, Quantity: 2}})
	access.Add(o)

	// 暂存不产生SQL
	require.Equal(t, 1, store.PendingCount())
	var n int64
	require.NoError(t, store.db.Model(&OrderModel{}).Count(&n).Error)
	require.Zero(t, n)

	failures, err := store.SaveChangesWithValidation(ctx)
	require.NoError(t, err)
	require.Empty(t, failures)

	require.NoError(t, store.db.Model(&OrderModel{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, store.db.Model(&LineItemModel{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	assert.NotZero(t, o.ID)
}
