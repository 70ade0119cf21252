package order

import (
	apperrors "github.com/chenxi/bookshop/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	// 注意:在当前顾客的过滤视图下不存在,可能根本没有这条订单,
	// 也可能属于别的顾客,对调用方两者一律是"不存在"
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrOrderImmutable 订单不可变
	// 订单落库后没有更新路径,也不会被硬删除;暂存了此类操作的
	// 保存会整体失败
	ErrOrderImmutable = apperrors.New(apperrors.ErrCodeBusinessError, "订单一经创建不可修改或删除")
)
