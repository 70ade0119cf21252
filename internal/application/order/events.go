package order

// RoutingKeyOrderCreated 下单成功事件的路由键
// 发往bookshop.events(topic),消费方可按order.*订阅
const RoutingKeyOrderCreated = "order.created"

// OrderCreatedEvent 下单成功事件
// 只携带标识和摘要信息,消费方需要明细时按OrderID回查
type OrderCreatedEvent struct {
	OrderID    uint   `json:"order_id"`
	OrderNo    string `json:"order_no"`
	CustomerID string `json:"customer_id"`
	Total      int64  `json:"total"`
	ItemCount  int    `json:"item_count"`
	CreatedAt  string `json:"created_at"`
}

// EventPublisher 事件发布端口
// mq.Publisher天然满足;测试用假实现,MQ关闭时用NopPublisher
type EventPublisher interface {
	Publish(routingKey string, message interface{}) error
	Exchange() string
}

// NopPublisher 空事件发布器(mq.enabled=false时接入)
// 下单流程不因消息设施缺席而改变
type NopPublisher struct{}

func (NopPublisher) Publish(routingKey string, message interface{}) error { return nil }

func (NopPublisher) Exchange() string { return "" }
