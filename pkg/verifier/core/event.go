package core

import (
	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
)

// ============================================================================
// 验证事件
// ============================================================================

// EventKind 事件种类
type EventKind int

const (
	// EventSpecViolation 违反了某条规范
	EventSpecViolation EventKind = iota + 1
	// EventBeanVerified Bean 通过了全部规则
	EventBeanVerified
)

// String 返回事件种类名称
func (k EventKind) String() string {
	switch k {
	case EventSpecViolation:
		return "spec-violation"
	case EventBeanVerified:
		return "bean-verified"
	default:
		return "unknown"
	}
}

// VerificationEvent 验证事件
// 由事件工厂创建，通过 VerificationContext 同步分发，验证器自身不保留
type VerificationEvent struct {
	Kind     EventKind `json:"kind"`
	BeanName string    `json:"bean"`
	// Method 出错方法的完整签名，可为空
	Method string `json:"method,omitempty"`
	// Section 违反的规范章节，BeanVerified 事件为空
	Section Section `json:"section"`
	Message string  `json:"message"`
}

// IsViolation 是否为违规事件
func (e VerificationEvent) IsViolation() bool {
	return e.Kind == EventSpecViolation
}

// VerificationListener 验证事件监听器
type VerificationListener interface {
	// SpecViolation 收到一条违规
	SpecViolation(e VerificationEvent)
	// BeanChecked 一个 Bean 通过全部检查
	BeanChecked(e VerificationEvent)
}

// ListenerFuncs 以函数形式实现 VerificationListener，未设置的回调被忽略
type ListenerFuncs struct {
	OnViolation func(e VerificationEvent)
	OnVerified  func(e VerificationEvent)
}

func (f *ListenerFuncs) SpecViolation(e VerificationEvent) {
	if f.OnViolation != nil {
		f.OnViolation(e)
	}
}

func (f *ListenerFuncs) BeanChecked(e VerificationEvent) {
	if f.OnVerified != nil {
		f.OnVerified(e)
	}
}

// ============================================================================
// 验证上下文
// ============================================================================

// VerificationContext 一次验证过程的上下文，由部署方提供
// 职责：提供元数据、部署单元位置、类加载器、目标版本，并分发事件
type VerificationContext interface {
	// ApplicationMetaData 已解析的部署单元元数据
	ApplicationMetaData() *metadata.ApplicationMetaData
	// JarURL 部署单元位置（jar 路径或 URL）
	JarURL() string
	// ClassLoader 类加载器，可为 nil（此时由验证器根据 JarURL 构建）
	ClassLoader() typemodel.ClassLoader
	// EJBVersion 完整版本字符串
	EJBVersion() string

	AddVerificationListener(l VerificationListener)
	RemoveVerificationListener(l VerificationListener)
	FireSpecViolation(e VerificationEvent)
	FireBeanChecked(e VerificationEvent)
}
