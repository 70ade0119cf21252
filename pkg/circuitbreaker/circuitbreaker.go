// Package circuitbreaker 提供一个三态熔断器
//
// 本仓库用它保护订单详情的Redis缓存路径:缓存只是加速器,
// Redis一旦不可达,每次查询都要陪它等完连接超时才能回源,
// 并发一高goroutine就开始堆积。熔断器把这种"等着失败"变成
// "立刻失败":连续失败攒够阈值后直接短路缓存调用,查询退化为
// 直查数据库,损失性能但保住可用性。
//
// 状态机:
//   - CLOSED  正常放行,统计窗口内的成败
//   - OPEN    短路一切调用,等待Timeout后进入探测
//   - HALF_OPEN 放行至多MaxRequests个探针,成则关闭,败则重新打开
//
// 教学要点：
//   - 熔断器保护的是调用方的线程/连接资源,不是被调用方
//   - 半开探测让恢复不需要人工介入
//   - 必须和降级策略配对:短路之后去哪,调用方要先想好
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpenState 熔断器处于打开状态,调用被短路
var ErrOpenState = errors.New("circuit breaker is open")

// State 熔断器状态
type State int

const (
	// StateClosed 关闭(正常放行)
	StateClosed State = iota
	// StateOpen 打开(短路所有调用)
	StateOpen
	// StateHalfOpen 半开(只放探针)
	StateHalfOpen
)

// String 日志友好的状态名
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Counts 一个统计窗口内的计数
// 窗口过期或状态切换时整体归零
type Counts struct {
	Requests             uint32 // 放行的请求数
	TotalSuccesses       uint32 // 成功数
	TotalFailures        uint32 // 失败数
	ConsecutiveSuccesses uint32 // 连续成功数
	ConsecutiveFailures  uint32 // 连续失败数
}

// FailureRate 窗口内失败占比,没有请求时为0
func (c *Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

// record 记一笔结果
// Requests在放行时已经加过,这里只动成败计数
func (c *Counts) record(ok bool) {
	if ok {
		c.TotalSuccesses++
		c.ConsecutiveSuccesses++
		c.ConsecutiveFailures = 0
		return
	}
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

func (c *Counts) clear() {
	*c = Counts{}
}

// Config 熔断器参数
type Config struct {
	// MaxRequests 半开状态允许同时在途的探针数,典型取1-5
	MaxRequests uint32

	// Interval 关闭状态的统计窗口长度
	// 每过一个窗口计数归零,失败不跨窗口累计
	Interval time.Duration

	// Timeout 打开状态的持续时长,到点转半开
	Timeout time.Duration

	// ReadyToTrip 每次失败后检查是否该熔断
	// 本仓库order-cache的策略是counts.ConsecutiveFailures >= 5;
	// 也可以按比例:counts.Requests >= 10 && counts.FailureRate() > 0.5
	ReadyToTrip func(counts Counts) bool
}

// CircuitBreaker 熔断器本体
// 所有字段由mu保护;gen是代号,状态每切换一次递增,
// 用来丢弃跨代的迟到结果(放行时是上一代,回写时状态已经换了)
type CircuitBreaker struct {
	name string
	cfg  Config

	mu       sync.Mutex
	state    State
	gen      uint64
	counts   Counts
	deadline time.Time // CLOSED:窗口到期时间; OPEN:转半开时间; HALF_OPEN:零值
	onShift  func(name string, from State, to State)
}

// NewCircuitBreaker 构造熔断器,初始为关闭状态
// name出现在状态回调里,建议用被保护资源命名,如"order-cache"
func NewCircuitBreaker(name string, config Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:     name,
		cfg:      config,
		state:    StateClosed,
		deadline: time.Now().Add(config.Interval),
		onShift:  func(string, State, State) {},
	}
}

// SetStateChangeCallback 注册状态翻转回调
// 用来记日志/报指标;回调在锁内同步执行,不要在里面再碰熔断器
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(name string, from State, to State)) {
	cb.onShift = fn
}

// Name 构造时定下的标识,日志和指标标签用
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute 经熔断器执行一次调用
// 被短路时返回ErrOpenState且req完全不会被调用;
// 放行时返回req自己的错误
func (cb *CircuitBreaker) Execute(req func() error) error {
	gen, err := cb.admit()
	if err != nil {
		return err
	}

	err = req()
	cb.settle(gen, err == nil)
	return err
}

// State 当前状态(会先结算窗口/超时)
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s, _ := cb.syncState(time.Now())
	return s
}

// Counts 当前窗口计数的副本
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.counts
}

// admit 决定是否放行,放行则计入Requests并返回当前代号
func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, gen := cb.syncState(now)

	switch {
	case state == StateOpen:
		return gen, ErrOpenState
	case state == StateHalfOpen && cb.counts.Requests >= cb.cfg.MaxRequests:
		// 探针名额已占满
		return gen, ErrOpenState
	}

	cb.counts.Requests++
	return gen, nil
}

// settle 回写一次调用的结果
// 代号对不上说明结果跨了状态切换,直接丢弃:上一代的成败
// 不应影响这一代的计数
func (cb *CircuitBreaker) settle(gen uint64, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, cur := cb.syncState(now)
	if cur != gen {
		return
	}

	cb.counts.record(ok)

	if ok {
		if state == StateHalfOpen {
			// 探针成功,恢复放行
			cb.shift(StateClosed, now)
		}
		return
	}

	switch state {
	case StateClosed:
		if cb.cfg.ReadyToTrip(cb.counts) {
			cb.shift(StateOpen, now)
		}
	case StateHalfOpen:
		// 下游还没好,回去继续等
		cb.shift(StateOpen, now)
	}
}

// syncState 把到期的状态结算掉,返回结算后的状态和代号
// 调用方必须已持有mu
func (cb *CircuitBreaker) syncState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.deadline.IsZero() && cb.deadline.Before(now) {
			// 统计窗口到期,既往不咎
			cb.counts.clear()
			cb.deadline = now.Add(cb.cfg.Interval)
		}
	case StateOpen:
		if cb.deadline.Before(now) {
			cb.shift(StateHalfOpen, now)
		}
	}
	return cb.state, cb.gen
}

// shift 切换状态:换代、清零计数、重排deadline、通知回调
func (cb *CircuitBreaker) shift(to State, now time.Time) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.gen++
	cb.counts.clear()

	switch to {
	case StateClosed:
		cb.deadline = now.Add(cb.cfg.Interval)
	case StateOpen:
		cb.deadline = now.Add(cb.cfg.Timeout)
	case StateHalfOpen:
		cb.deadline = time.Time{}
	}

	if cb.onShift != nil {
		cb.onShift(cb.name, from, to)
	}
}

// ==================== DO/DON'T 对比 ====================

// ❌ DON'T: 裸访问缓存,故障时每个请求都等满超时
//
//	cached, hit, err := cache.GetDetail(ctx, customerID, orderID)
//	// Redis宕机:100个并发查询 = 100次3秒的无谓等待,
//	// goroutine和连接池一起被拖垮
//
// ✅ DO: 用熔断器包住缓存访问,被熔断时直接回源
//
//	err := breaker.Execute(func() error {
//	    var err error
//	    cached, hit, err = cache.GetDetail(ctx, customerID, orderID)
//	    return err
//	})
//	if err != nil {
//	    // ErrOpenState或缓存故障:记日志,落到数据库查询
//	}
//
// 连续5次失败后,后续查询不再触碰Redis(亚毫秒返回),
// Timeout过后自动放探针,探测成功即恢复,全程无人工介入
