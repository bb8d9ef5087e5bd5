// Package event 验证事件的创建与分发
package event

import (
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/core"
)

// VerifiedMessage Bean 通过全部检查时的默认消息
const VerifiedMessage = "Verified."

// Factory 事件工厂
// 职责：统一事件的消息文本（来自章节目录），规则引擎只需给出章节与方法
type Factory struct{}

// NewFactory 创建事件工厂
func NewFactory() *Factory {
	return &Factory{}
}

// NewSpecViolation 创建违规事件，method 可为 nil
func (f *Factory) NewSpecViolation(bean string, method *typemodel.Method, section core.Section) core.VerificationEvent {
	e := core.VerificationEvent{
		Kind:     core.EventSpecViolation,
		BeanName: bean,
		Section:  section,
		Message:  section.Message(),
	}
	if method != nil {
		e.Method = method.String()
	}
	return e
}

// NewBeanVerified 创建通过事件
func (f *Factory) NewBeanVerified(bean string) core.VerificationEvent {
	return core.VerificationEvent{
		Kind:     core.EventBeanVerified,
		BeanName: bean,
		Message:  VerifiedMessage,
	}
}
