package typemodel

import (
	"strings"
)

// ============================================================================
// 类型模型：类、方法、字段
// ============================================================================

// Kind 类型种类
type Kind int

const (
	KindClass     Kind = iota // 普通类
	KindInterface             // 接口
	KindPrimitive             // 基本类型（含 void）
	KindArray                 // 数组
)

// String 返回种类名称
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// 常用的 Java 平台类型名
const (
	ObjectClass       = "java.lang.Object"
	StringClass       = "java.lang.String"
	ThrowableClass    = "java.lang.Throwable"
	ExceptionClass    = "java.lang.Exception"
	RuntimeException  = "java.lang.RuntimeException"
	ErrorClass        = "java.lang.Error"
	CloneableClass    = "java.lang.Cloneable"
	SerializableClass = "java.io.Serializable"
	IOExceptionClass  = "java.io.IOException"
	Void              = "void"
)

// Member 带访问标志的类型成员（类、方法、字段都实现该接口）
type Member interface {
	AccessFlags() Modifiers
}

// Class 类的静态描述，相当于 java.lang.Class 的只读快照
// 职责：承载从 class 文件或符号表中读取的结构信息
// 说明：类型引用一律使用名称（String），由 TypeSystem 负责延迟解析
type Class struct {
	// Name 二进制类名，如 java.lang.String、com.acme.Outer$Inner；数组使用源码形式 T[]
	Name string
	// Kind 类型种类
	Kind Kind
	// Flags 访问标志
	Flags Modifiers
	// SuperName 父类名（接口、Object、基本类型为空，接口在 class 文件中为 java.lang.Object）
	SuperName string
	// InterfaceNames 直接实现（或继承）的接口
	InterfaceNames []string
	// DeclaringName 成员类的外部类名，顶层类为空
	DeclaringName string
	// Component 数组元素类型，非数组为 nil
	Component *Class

	Fields       []*Field
	Methods      []*Method
	Constructors []*Method
}

// AccessFlags 实现 Member 接口
func (c *Class) AccessFlags() Modifiers {
	return c.Flags
}

// IsInterface 是否为接口
func (c *Class) IsInterface() bool {
	return c.Kind == KindInterface
}

// IsPrimitive 是否为基本类型（含 void）
func (c *Class) IsPrimitive() bool {
	return c.Kind == KindPrimitive
}

// IsArray 是否为数组
func (c *Class) IsArray() bool {
	return c.Kind == KindArray
}

// IsMemberClass 是否为成员类（有外部类）
func (c *Class) IsMemberClass() bool {
	return c.DeclaringName != ""
}

// PackageName 包名
func (c *Class) PackageName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// SimpleName 简单类名
func (c *Class) SimpleName() string {
	name := c.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '$'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// DeclaredMethod 按名称与参数列表查找本类声明的方法
func (c *Class) DeclaredMethod(name string, params ...string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name && sameTypes(m.ParameterTypes, params) {
			return m, true
		}
	}
	return nil, false
}

// DeclaredField 按名称查找本类声明的字段
func (c *Class) DeclaredField(name string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// String 返回类名
func (c *Class) String() string {
	return c.Name
}

// Method 方法描述
type Method struct {
	Name           string
	Flags          Modifiers
	ParameterTypes []string
	ReturnType     string
	ExceptionTypes []string
	// DeclaringClass 声明该方法的类名
	DeclaringClass string
}

// AccessFlags 实现 Member 接口
func (m *Method) AccessFlags() Modifiers {
	return m.Flags
}

// Signature 方法签名（名称 + 参数类型），用作比较键
func (m *Method) Signature() string {
	return SignatureOf(m.Name, m.ParameterTypes)
}

// String 返回类似 Java 反射的完整描述
// 例如：public abstract com.acme.Account create(java.lang.String) throws javax.ejb.CreateException
func (m *Method) String() string {
	var b strings.Builder
	if mods := m.Flags.String(); mods != "" {
		b.WriteString(mods)
		b.WriteByte(' ')
	}
	if m.ReturnType != "" {
		b.WriteString(m.ReturnType)
		b.WriteByte(' ')
	}
	if m.DeclaringClass != "" {
		b.WriteString(m.DeclaringClass)
		b.WriteByte('.')
	}
	b.WriteString(m.Signature())
	if len(m.ExceptionTypes) > 0 {
		b.WriteString(" throws ")
		b.WriteString(strings.Join(m.ExceptionTypes, ","))
	}
	return b.String()
}

// Field 字段描述
type Field struct {
	Name           string
	Flags          Modifiers
	Type           string
	DeclaringClass string
}

// AccessFlags 实现 Member 接口
func (f *Field) AccessFlags() Modifiers {
	return f.Flags
}

// SignatureOf 构造方法签名 name(T1,T2)
func SignatureOf(name string, params []string) string {
	return name + "(" + strings.Join(params, ",") + ")"
}

// sameTypes 参数列表逐项完全相等
func sameTypes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SameParameterTypes 两个方法的参数类型列表完全一致
func SameParameterTypes(a, b *Method) bool {
	return sameTypes(a.ParameterTypes, b.ParameterTypes)
}

// ============================================================================
// 基本类型
// ============================================================================

var primitiveNames = map[string]struct{}{
	"boolean": {}, "byte": {}, "char": {}, "short": {},
	"int": {}, "long": {}, "float": {}, "double": {}, "void": {},
}

// IsPrimitiveName 是否为基本类型名（含 void）
func IsPrimitiveName(name string) bool {
	_, ok := primitiveNames[name]
	return ok
}

// ComponentName 数组类型的元素类型名；非数组返回 false
func ComponentName(name string) (string, bool) {
	if strings.HasSuffix(name, "[]") {
		return name[:len(name)-2], true
	}
	return "", false
}
