package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/chenxi/bookshop/internal/domain/order"
	apperrors "github.com/chenxi/bookshop/pkg/errors"
)

// queryOrdersDBAccess 订单查询数据访问实现
// 读路径全部走Orders()访问器,租户过滤已经拼在查询里
type queryOrdersDBAccess struct {
	store *StoreContext
}

// NewQueryOrdersDBAccess 在给定存储上下文上构造订单查询数据访问
func NewQueryOrdersDBAccess(store *StoreContext) order.QueryOrdersDBAccess {
	return &queryOrdersDBAccess{store: store}
}

// FindByID 按ID取订单(含按行号排序的明细和图书导航)
// 别人的订单和不存在的订单不可区分,一律ErrOrderNotFound
func (a *queryOrdersDBAccess) FindByID(ctx context.Context, orderID uint) (*order.Order, error) {
	var model OrderModel
	err := a.store.Orders().WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_items.line_num ASC")
		}).
		Preload("Items.Book").
		Where("orders.id = ?", orderID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// FindPage 分页取当前顾客的订单,最新在前
// created_at相同时按ID倒序,保证分页顺序稳定
func (a *queryOrdersDBAccess) FindPage(ctx context.Context, page, pageSize int) ([]*order.Order, int64, error) {
	var total int64
	if err := a.store.Orders().WithContext(ctx).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	var models []OrderModel
	offset := (page - 1) * pageSize
	err := a.store.Orders().WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_items.line_num ASC")
		}).
		Order("orders.created_at DESC, orders.id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		result[i] = toOrderEntity(&models[i])
	}
	return result, total, nil
}
