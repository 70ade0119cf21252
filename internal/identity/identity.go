package identity

import (
	"github.com/google/uuid"
)

// 顾客身份抽象
// 设计说明：
// 1. 订单的归属者是一个不透明的顾客标识（Cookie派生的UUID），
//    与认证体系彻底解耦：没有用户表，customer_id也不是外键
// 2. 身份源是显式传入的可选协作者：存储上下文在构造时调用一次
//    GetUserID并固化结果，之后整个工作单元内不再变化

// UserIDService 当前工作单元的顾客身份来源
// 约定：GetUserID无副作用，且每次上下文构造至多被调用一次
type UserIDService interface {
	GetUserID() uuid.UUID
}

// PlaceholderID 占位身份（全零UUID，确定值）
// 未提供身份源时存储上下文回退到它，使种子工具和测试可以
// 在没有真实身份的情况下构造上下文。
// 警告：所有无身份源的上下文共享同一个占位租户，互相能看到
// 彼此写入的订单。生产请求路径必须带真实身份源，工厂在回退发生时
// 会记录告警日志
var PlaceholderID = uuid.Nil

// static 固定身份源
type static struct {
	id uuid.UUID
}

func (s static) GetUserID() uuid.UUID {
	return s.id
}

// Static 用固定UUID构造身份源
// HTTP层用它包装Cookie里解析出的顾客ID，测试用它模拟不同租户
func Static(id uuid.UUID) UserIDService {
	return static{id: id}
}
