package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

// newCacheBreaker 按生产配置的缩小版构造熔断器
// 连续failAt次失败熔断,超时timeout后进入半开探测
func newCacheBreaker(failAt uint32, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("order-cache", Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= failAt
		},
	})
}

// TestBreakerStaysClosedOnSuccess 持续成功时保持关闭,照常放行
func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := newCacheBreaker(5, 30*time.Second)

	for i := 0; i < 10; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("期望放行，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("全部成功时应保持CLOSED,实际%s", cb.State())
	}
	if counts := cb.Counts(); counts.TotalSuccesses != 10 {
		t.Errorf("TotalSuccesses应为10,实际%d", counts.TotalSuccesses)
	}
}

// TestBreakerTripsAfterConsecutiveFailures 连续失败达到阈值后熔断,之后快速失败
func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	cb := newCacheBreaker(5, 30*time.Second)

	// Redis持续报错,攒满5次连续失败
	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return errors.New("redis: connection refused") })
	}

	if cb.State() != StateOpen {
		t.Fatalf("应已跳闸到OPEN,实际%s", cb.State())
	}

	// 熔断期间不再触碰缓存,立即返回ErrOpenState
	touched := false
	err := cb.Execute(func() error {
		touched = true
		return nil
	})
	if !errors.Is(err, ErrOpenState) {
		t.Errorf("期望ErrOpenState，实际%v", err)
	}
	if touched {
		t.Error("熔断打开时不应该再调用缓存")
	}
}

// TestBreakerFailuresResetOnSuccess 失败未连续则不熔断:一次成功清零计数
func TestBreakerFailuresResetOnSuccess(t *testing.T) {
	cb := newCacheBreaker(3, 30*time.Second)

	// 失败-失败-成功,循环多轮:连续失败数永远到不了3
	for round := 0; round < 4; round++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
		_ = cb.Execute(func() error { return errors.New("fail") })
		_ = cb.Execute(func() error { return nil })
	}

	if cb.State() != StateClosed {
		t.Errorf("偶发失败不应熔断,期望CLOSED,实际%s", cb.State())
	}
}

// TestBreakerCountsResetOnWindowExpiry 统计窗口过期后计数重置
// 失败不跨窗口累计:窗口内没攒够阈值就既往不咎
func TestBreakerCountsResetOnWindowExpiry(t *testing.T) {
	cb := NewCircuitBreaker("order-cache", Config{
		MaxRequests: 1,
		Interval:    50 * time.Millisecond,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}

	// 过窗:计数器归零
	time.Sleep(80 * time.Millisecond)

	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}

	if cb.State() != StateClosed {
		t.Errorf("两个窗口各4次失败不该熔断,期望CLOSED,实际%s", cb.State())
	}
}

// TestBreakerHalfOpenRecovery 超时后半开探测,探测成功即恢复
func TestBreakerHalfOpenRecovery(t *testing.T) {
	cb := newCacheBreaker(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}
	if cb.State() != StateOpen {
		t.Fatalf("应已跳闸到OPEN,实际%s", cb.State())
	}

	// 熔断超时,下一个请求作为探针放行
	time.Sleep(150 * time.Millisecond)

	probed := false
	if err := cb.Execute(func() error {
		probed = true
		return nil
	}); err != nil {
		t.Errorf("半开状态的探测请求期望放行，实际%v", err)
	}
	if !probed {
		t.Error("半开状态应该放行探测请求")
	}

	if cb.State() != StateClosed {
		t.Errorf("探测成功后期望CLOSED，实际%s", cb.State())
	}
}

// TestBreakerHalfOpenProbeFails 半开探测失败立即回到熔断
func TestBreakerHalfOpenProbeFails(t *testing.T) {
	cb := newCacheBreaker(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}
	time.Sleep(150 * time.Millisecond)

	// Redis还没好,探针失败
	_ = cb.Execute(func() error { return errors.New("still down") })

	if cb.State() != StateOpen {
		t.Errorf("探测失败后期望回到OPEN，实际%s", cb.State())
	}
}

// TestBreakerHalfOpenLimitsInflight 半开状态同时在途的请求数不超过MaxRequests
func TestBreakerHalfOpenLimitsInflight(t *testing.T) {
	cb := newCacheBreaker(3, 50*time.Millisecond) // MaxRequests=1

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}
	time.Sleep(80 * time.Millisecond)

	// 第一个探针卡在途中(模拟慢请求),此时又来一个请求
	probeStarted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(probeStarted)
			<-release
			return nil
		})
	}()

	<-probeStarted
	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, ErrOpenState) {
		t.Errorf("半开状态只放行1个探针,第二个期望ErrOpenState,实际%v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("探针本身期望成功,实际%v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("探针成功后期望CLOSED，实际%s", cb.State())
	}
}

// TestBreakerStateChangeCallback 状态翻转回调(接监控指标用)
func TestBreakerStateChangeCallback(t *testing.T) {
	cb := newCacheBreaker(3, 100*time.Millisecond)

	var transitions []string
	cb.SetStateChangeCallback(func(name string, from State, to State) {
		if name != "order-cache" {
			t.Errorf("回调里的名字期望order-cache,实际%s", name)
		}
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	// 走完整的一圈:熔断→半开→恢复
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}
	time.Sleep(150 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("期望%d次翻转,实际%d次: %v", len(want), len(transitions), transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("第%d次翻转期望%s,实际%s", i+1, want[i], transitions[i])
		}
	}
}

// TestBreakerFailureRateTrip 按失败率熔断(样本量达标才看比例)
func TestBreakerFailureRateTrip(t *testing.T) {
	cb := NewCircuitBreaker("order-cache", Config{
		MaxRequests: 1,
		Interval:    time.Hour, // 长窗口,测试期间不重置
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.Requests >= 10 && counts.FailureRate() > 0.5
		},
	})

	// 10次请求:4成功6失败,失败率60%
	for i := 0; i < 10; i++ {
		ok := i < 4
		_ = cb.Execute(func() error {
			if ok {
				return nil
			}
			return errors.New("fail")
		})
	}

	if cb.State() != StateOpen {
		counts := cb.Counts()
		t.Errorf("失败率%.0f%%超过一半,期望OPEN,实际%s(请求=%d 失败=%d)",
			counts.FailureRate()*100, cb.State(), counts.Requests, counts.TotalFailures)
	}
}

// ==================== 实战示例 ====================

// flakyDetailCache 模拟故障中的订单详情缓存
// 前failCount次调用报错(Redis不可达),之后恢复
type flakyDetailCache struct {
	failCount int
	callCount int
}

func (c *flakyDetailCache) GetDetail(orderID uint) (string, error) {
	c.callCount++
	if c.callCount <= c.failCount {
		return "", errors.New("redis: connection refused")
	}
	return `{"order_no":"ORD1699248000123456"}`, nil
}

// TestBreakerGuardsOrderCache 订单详情缓存的完整故障-恢复过程
// 对应GetOrderUseCase里的用法:熔断期间查询直接回源数据库,
// 损失的是性能,不是可用性
func TestBreakerGuardsOrderCache(t *testing.T) {
	cache := &flakyDetailCache{failCount: 5}
	cb := newCacheBreaker(5, 200*time.Millisecond)

	cb.SetStateChangeCallback(func(name string, from State, to State) {
		t.Logf("[%s] 状态翻转: %s -> %s", name, from, to)
	})

	// 缓存故障期内来了10个查询:前5个等到报错,后5个快速失败
	for i := 1; i <= 10; i++ {
		err := cb.Execute(func() error {
			_, err := cache.GetDetail(42)
			return err
		})
		switch {
		case errors.Is(err, ErrOpenState):
			t.Logf("查询#%d: 熔断打开,跳过缓存直接回源", i)
		case err != nil:
			t.Logf("查询#%d: 缓存故障 (%v)", i, err)
		default:
			t.Logf("查询#%d: 缓存命中", i)
		}
	}

	// 熔断期间缓存一次都没被触碰
	if cache.callCount != 5 {
		t.Errorf("期望实际触碰缓存5次,实际%d次", cache.callCount)
	}

	// Redis恢复,熔断超时后探测成功
	time.Sleep(250 * time.Millisecond)
	err := cb.Execute(func() error {
		_, err := cache.GetDetail(42)
		return err
	})
	if err != nil {
		t.Errorf("恢复后的探测期望成功,实际: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("期望恢复为CLOSED,实际%s", cb.State())
	}
}

// BenchmarkBreakerOverhead 放行路径的开销基准
func BenchmarkBreakerOverhead(b *testing.B) {
	cb := newCacheBreaker(5, 30*time.Second)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(func() error { return nil })
	}
}
