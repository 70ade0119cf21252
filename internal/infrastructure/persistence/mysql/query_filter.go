package mysql

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 查询过滤策略
// 设计说明：
// 1. 两条全局谓词:图书的软删除过滤、订单的租户过滤,
//    以GORM scope函数的形式定义,由存储上下文的标准访问器无条件拼接
// 2. 过滤不是调用方可选的查询参数:单条查询"忘了过滤"这类bug
//    在这一层被整体消灭;确需跳过的管理/工具代码必须用
//    *Unfiltered访问器(名字即警示)
// 3. 列名带表前缀,调用方追加Join时不会产生歧义

// notSoftDeleted 软删除过滤:只看未下架的图书
func notSoftDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("books.soft_deleted = ?", false)
}

// ownedBy 租户过滤:只看指定顾客自己的订单
// 顾客标识在存储上下文构造时解析一次,之后整个工作单元内固定
func ownedBy(customerID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("orders.customer_id = ?", customerID)
	}
}
