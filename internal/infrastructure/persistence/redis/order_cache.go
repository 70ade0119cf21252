package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DetailTTL 订单详情缓存时长
// 订单落库后不可变,缓存不存在脏数据问题,TTL只是为了控制内存占用
const DetailTTL = 24 * time.Hour

// OrderCache 订单详情缓存(Cache-Aside)
// 设计说明：
// 1. 键按顾客隔离(order:detail:<customerID>:<orderID>),
//    即使缓存层被误用也查不到别人的订单
// 2. 值是序列化好的响应JSON,命中时直接回写HTTP,零反序列化
// 3. 未命中返回("", false, nil),与故障(error)严格区分,
//    调用方据此决定回源还是降级
type OrderCache struct {
	client *redis.Client
}

// NewOrderCache 创建订单缓存
func NewOrderCache(client *redis.Client) *OrderCache {
	return &OrderCache{client: client}
}

// detailKey 订单详情缓存键
// 命名规范:模块:实体:顾客:ID,顾客段保证租户隔离
func detailKey(customerID uuid.UUID, orderID uint) string {
	return fmt.Sprintf("order:detail:%s:%d", customerID.String(), orderID)
}

// GetDetail 读取订单详情缓存
// 返回(json, 命中与否, 错误);redis.Nil按未命中处理,不是错误
func (c *OrderCache) GetDetail(ctx context.Context, customerID uuid.UUID, orderID uint) (string, bool, error) {
	val, err := c.client.Get(ctx, detailKey(customerID, orderID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("读取订单缓存失败: %w", err)
	}
	return val, true, nil
}

// SetDetail 写入订单详情缓存
// SetEx一条命令同时写值和TTL,避免Set+Expire之间宕机留下永久键
func (c *OrderCache) SetDetail(ctx context.Context, customerID uuid.UUID, orderID uint, detailJSON string) error {
	err := c.client.SetEx(ctx, detailKey(customerID, orderID), detailJSON, DetailTTL).Err()
	if err != nil {
		return fmt.Errorf("写入订单缓存失败: %w", err)
	}
	return nil
}
