// Package introspect 对类与方法做 EJB 约定相关的分类
//
// 所有谓词都是纯函数：不修改类型模型，不向调用方返回错误。
// 依赖类解析的谓词在名称无法解析时返回 false 并记录 warn 日志（fail-open），
// 把"谓词为假"翻译成哪条违规是上层规则引擎的职责。
package introspect

import (
	"strings"

	"go.uber.org/zap"

	"ejb-verifier/pkg/typemodel"
)

// 规则中引用的平台类型名
const (
	RemoteMarker           = "java.rmi.Remote"
	RemoteExceptionClass   = "java.rmi.RemoteException"
	EJBHomeClass           = "javax.ejb.EJBHome"
	EJBObjectClass         = "javax.ejb.EJBObject"
	EJBLocalHomeClass      = "javax.ejb.EJBLocalHome"
	EJBLocalObjectClass    = "javax.ejb.EJBLocalObject"
	SessionBeanClass       = "javax.ejb.SessionBean"
	EntityBeanClass        = "javax.ejb.EntityBean"
	MessageDrivenBeanClass = "javax.ejb.MessageDrivenBean"
	SessionSyncClass       = "javax.ejb.SessionSynchronization"
	CreateExceptionClass   = "javax.ejb.CreateException"
	FinderExceptionClass   = "javax.ejb.FinderException"
	JMSMessageClass        = "javax.jms.Message"
	CollectionClass        = "java.util.Collection"
	EnumerationClass       = "java.util.Enumeration"
	CORBAObjectClass       = "org.omg.CORBA.Object"
	IDLEntityClass         = "org.omg.CORBA.portable.IDLEntity"
)

// Capability 接口能力检查的三态结果
type Capability int

const (
	Absent Capability = iota
	Present
	// Unresolvable 接口名无法解析，按 Absent 处理
	Unresolvable
)

// String 返回名称
func (c Capability) String() string {
	switch c {
	case Present:
		return "present"
	case Unresolvable:
		return "unresolvable"
	default:
		return "absent"
	}
}

// Inspector 类型内省器
// 职责：命名约定、修饰符、接口成员关系、签名匹配、RMI/IIOP 合规检查
type Inspector struct {
	ts  *typemodel.TypeSystem
	log *zap.Logger
}

// New 创建内省器
func New(ts *typemodel.TypeSystem, log *zap.Logger) *Inspector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inspector{ts: ts, log: log}
}

// TypeSystem 底层类型系统
func (in *Inspector) TypeSystem() *typemodel.TypeSystem {
	return in.ts
}

// resolve 解析类型；失败时记录 warn 并返回 nil
func (in *Inspector) resolve(name string) *typemodel.Class {
	c, err := in.ts.Resolve(name)
	if err != nil {
		in.log.Warn("type not resolvable, treating as absent", zap.String("type", name), zap.Error(err))
		return nil
	}
	return c
}

// isAssignable target 是否可以接收 source；任一侧无法解析时退化为名称相等
func (in *Inspector) isAssignable(target, source string) bool {
	if target == source {
		return true
	}
	t, s := in.resolve(target), in.resolve(source)
	if t == nil || s == nil {
		return false
	}
	return in.ts.IsAssignableFrom(t, s)
}

// ============================================================================
// 命名约定
// ============================================================================

func IsCreateMethod(m *typemodel.Method) bool  { return strings.HasPrefix(m.Name, "create") }
func IsEJBCreate(m *typemodel.Method) bool     { return strings.HasPrefix(m.Name, "ejbCreate") }
func IsEJBPostCreate(m *typemodel.Method) bool { return strings.HasPrefix(m.Name, "ejbPostCreate") }
func IsEJBRemove(m *typemodel.Method) bool     { return m.Name == "ejbRemove" }
func IsEJBSelect(m *typemodel.Method) bool     { return strings.HasPrefix(m.Name, "ejbSelect") }
func IsEJBHome(m *typemodel.Method) bool       { return strings.HasPrefix(m.Name, "ejbHome") }
func IsFinder(m *typemodel.Method) bool        { return strings.HasPrefix(m.Name, "find") }
func IsEJBFind(m *typemodel.Method) bool       { return strings.HasPrefix(m.Name, "ejbFind") }

// IsOnMessage 名为 onMessage 且唯一参数可赋给 javax.jms.Message
func (in *Inspector) IsOnMessage(m *typemodel.Method) bool {
	if m.Name != "onMessage" || len(m.ParameterTypes) != 1 {
		return false
	}
	return in.isAssignable(JMSMessageClass, m.ParameterTypes[0])
}

// ============================================================================
// 修饰符（类与方法通用）
// ============================================================================

func IsPublic(m typemodel.Member) bool   { return m.AccessFlags().IsPublic() }
func IsStatic(m typemodel.Member) bool   { return m.AccessFlags().IsStatic() }
func IsFinal(m typemodel.Member) bool    { return m.AccessFlags().IsFinal() }
func IsAbstract(m typemodel.Member) bool { return m.AccessFlags().IsAbstract() }

// ============================================================================
// 接口成员关系（fail-open）
// ============================================================================

// Implements c 是否（直接或间接）实现 iface
func (in *Inspector) Implements(c *typemodel.Class, iface string) Capability {
	if c == nil {
		return Absent
	}
	target, err := in.ts.Resolve(iface)
	if err != nil {
		in.log.Warn("interface not resolvable, treating as absent",
			zap.String("interface", iface), zap.String("class", c.Name), zap.Error(err))
		return Unresolvable
	}
	if in.ts.IsAssignableFrom(target, c) {
		return Present
	}
	return Absent
}

func (in *Inspector) has(c *typemodel.Class, iface string) bool {
	return in.Implements(c, iface) == Present
}

func (in *Inspector) HasRemoteInterface(c *typemodel.Class) bool      { return in.has(c, RemoteMarker) }
func (in *Inspector) HasEJBObjectInterface(c *typemodel.Class) bool   { return in.has(c, EJBObjectClass) }
func (in *Inspector) HasHomeInterface(c *typemodel.Class) bool        { return in.has(c, EJBHomeClass) }
func (in *Inspector) HasLocalObjectInterface(c *typemodel.Class) bool { return in.has(c, EJBLocalObjectClass) }
func (in *Inspector) HasLocalHomeInterface(c *typemodel.Class) bool   { return in.has(c, EJBLocalHomeClass) }
func (in *Inspector) HasSessionBeanInterface(c *typemodel.Class) bool { return in.has(c, SessionBeanClass) }
func (in *Inspector) HasEntityBeanInterface(c *typemodel.Class) bool  { return in.has(c, EntityBeanClass) }

func (in *Inspector) HasMessageDrivenBeanInterface(c *typemodel.Class) bool {
	return in.has(c, MessageDrivenBeanClass)
}

func (in *Inspector) HasMessageListenerInterface(c *typemodel.Class, messagingType string) bool {
	return in.has(c, messagingType)
}

func (in *Inspector) HasSessionSynchronizationInterface(c *typemodel.Class) bool {
	return in.has(c, SessionSyncClass)
}
