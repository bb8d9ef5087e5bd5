package event

import (
	"sync"

	"go.uber.org/zap"

	"ejb-verifier/pkg/verifier/core"
)

// Collector 按到达顺序保存所有事件（并发安全）
type Collector struct {
	mu     sync.Mutex
	events []core.VerificationEvent
}

// NewCollector 创建收集器
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) SpecViolation(e core.VerificationEvent) { c.add(e) }
func (c *Collector) BeanChecked(e core.VerificationEvent)   { c.add(e) }

func (c *Collector) add(e core.VerificationEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events 所有事件的副本
func (c *Collector) Events() []core.VerificationEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.VerificationEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Violations 违规事件
func (c *Collector) Violations() []core.VerificationEvent {
	var out []core.VerificationEvent
	for _, e := range c.Events() {
		if e.IsViolation() {
			out = append(out, e)
		}
	}
	return out
}

// Sections 违规章节号序列（按触发顺序）
func (c *Collector) Sections() []string {
	var out []string
	for _, e := range c.Violations() {
		out = append(out, e.Section.ID)
	}
	return out
}

// Verified 通过事件的 Bean 名
func (c *Collector) Verified() []string {
	var out []string
	for _, e := range c.Events() {
		if e.Kind == core.EventBeanVerified {
			out = append(out, e.BeanName)
		}
	}
	return out
}

// Reset 清空
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// LoggingListener 将事件写入结构化日志
type LoggingListener struct {
	log *zap.Logger
}

// NewLoggingListener 创建日志监听器
func NewLoggingListener(log *zap.Logger) *LoggingListener {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingListener{log: log}
}

func (l *LoggingListener) SpecViolation(e core.VerificationEvent) {
	fields := []zap.Field{
		zap.String("bean", e.BeanName),
		zap.String("section", e.Section.ID),
		zap.String("message", e.Message),
	}
	if e.Section.Info != "" {
		fields = append(fields, zap.String("info", e.Section.Info))
	}
	if e.Method != "" {
		fields = append(fields, zap.String("method", e.Method))
	}
	l.log.Warn("spec violation", fields...)
}

func (l *LoggingListener) BeanChecked(e core.VerificationEvent) {
	l.log.Info("bean verified", zap.String("bean", e.BeanName))
}
