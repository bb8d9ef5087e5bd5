package event

import (
	"sync"

	"go.uber.org/zap"

	"ejb-verifier/pkg/verifier/core"
)

// ============================================================================
// 同步事件总线
// ============================================================================

// Bus 同步事件总线
// 职责：按注册顺序把事件同步分发给所有监听器
// 设计原则：
//   - 观察者模式，同步执行，不缓冲不重排
//   - 单个监听器 panic 不影响其它监听器
type Bus struct {
	// listeners 监听器列表
	listeners []core.VerificationListener

	// mu 保护监听器列表
	mu sync.RWMutex

	log *zap.Logger
}

// NewBus 创建同步事件总线
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		listeners: make([]core.VerificationListener, 0),
		log:       log,
	}
}

// Subscribe 订阅事件
func (bus *Bus) Subscribe(listener core.VerificationListener) {
	if listener == nil {
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.listeners = append(bus.listeners, listener)
}

// Unsubscribe 取消订阅
func (bus *Bus) Unsubscribe(listener core.VerificationListener) {
	if listener == nil {
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for i, l := range bus.listeners {
		if l == listener {
			bus.listeners = append(bus.listeners[:i], bus.listeners[i+1:]...)
			break
		}
	}
}

// Len 当前监听器数量
func (bus *Bus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.listeners)
}

// Publish 发布事件
func (bus *Bus) Publish(e core.VerificationEvent) {
	// 复制监听器列表，避免回调中订阅/退订造成死锁
	bus.mu.RLock()
	listeners := make([]core.VerificationListener, len(bus.listeners))
	copy(listeners, bus.listeners)
	bus.mu.RUnlock()

	for _, l := range listeners {
		bus.deliver(l, e)
	}
}

func (bus *Bus) deliver(l core.VerificationListener, e core.VerificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			bus.log.Error("verification listener panicked",
				zap.Any("panic", r),
				zap.String("bean", e.BeanName),
				zap.String("section", e.Section.ID))
		}
	}()

	switch e.Kind {
	case core.EventSpecViolation:
		l.SpecViolation(e)
	case core.EventBeanVerified:
		l.BeanChecked(e)
	}
}
