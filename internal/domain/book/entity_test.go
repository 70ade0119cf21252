package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestActualPrice 实际售价:有促销价取促销价,否则取定价
func TestActualPrice(t *testing.T) {
	b := &Book{Title: "Go语言实战", Price: 7900}
	assert.Equal(t, int64(7900), b.ActualPrice())

	b.Promotion = &PriceOffer{NewPrice: 4900, PromotionalText: "限时特惠"}
	assert.Equal(t, int64(4900), b.ActualPrice())

	// 促销撤掉后回落到定价
	b.Promotion = nil
	assert.Equal(t, int64(7900), b.ActualPrice())
}

// TestMarkDeletedAndRestore 下架/上架只翻转标记,数据行保留
func TestMarkDeletedAndRestore(t *testing.T) {
	b := &Book{Title: "深入理解计算机系统", Price: 13900}
	assert.False(t, b.SoftDeleted)

	b.MarkDeleted()
	assert.True(t, b.SoftDeleted)
	assert.False(t, b.UpdatedAt.IsZero())

	b.Restore()
	assert.False(t, b.SoftDeleted)
}
