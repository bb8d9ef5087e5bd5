package typemodel

import "strings"

// Modifiers JVM 访问标志位，取值与 class 文件中的 access_flags 保持一致
// 类、方法、字段共用同一组位，部分位在不同场合含义不同（如 0x0020 对类是 ACC_SUPER）
type Modifiers uint16

const (
	ModNone         Modifiers = 0
	ModPublic       Modifiers = 0x0001
	ModPrivate      Modifiers = 0x0002
	ModProtected    Modifiers = 0x0004
	ModStatic       Modifiers = 0x0008
	ModFinal        Modifiers = 0x0010
	ModSynchronized Modifiers = 0x0020
	ModVolatile     Modifiers = 0x0040
	ModTransient    Modifiers = 0x0080
	ModNative       Modifiers = 0x0100
	ModInterface    Modifiers = 0x0200
	ModAbstract     Modifiers = 0x0400
	ModStrict       Modifiers = 0x0800
)

// modifierNames 修饰符与 Java 关键字的对应关系（按 Java 源码书写顺序）
var modifierNames = []struct {
	flag Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModAbstract, "abstract"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModTransient, "transient"},
	{ModVolatile, "volatile"},
	{ModSynchronized, "synchronized"},
	{ModNative, "native"},
	{ModStrict, "strictfp"},
	{ModInterface, "interface"},
}

// Set 设置指定的标志位
func (m *Modifiers) Set(flag Modifiers) {
	*m |= flag
}

// Unset 取消指定的标志位
func (m *Modifiers) Unset(flag Modifiers) {
	*m &^= flag
}

// Contain 检查是否包含指定的标志位
func (m Modifiers) Contain(flag Modifiers) bool {
	return m&flag == flag
}

// HasAny 检查是否包含任意一个指定的标志位
func (m Modifiers) HasAny(flags ...Modifiers) bool {
	for _, flag := range flags {
		if m&flag != 0 {
			return true
		}
	}
	return false
}

func (m Modifiers) IsPublic() bool    { return m.Contain(ModPublic) }
func (m Modifiers) IsStatic() bool    { return m.Contain(ModStatic) }
func (m Modifiers) IsFinal() bool     { return m.Contain(ModFinal) }
func (m Modifiers) IsAbstract() bool  { return m.Contain(ModAbstract) }
func (m Modifiers) IsInterface() bool { return m.Contain(ModInterface) }
func (m Modifiers) IsTransient() bool { return m.Contain(ModTransient) }

// String 返回 Java 源码形式的修饰符列表，如 "public abstract"
func (m Modifiers) String() string {
	parts := make([]string, 0, 4)
	for _, mn := range modifierNames {
		if m.Contain(mn.flag) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseModifier 将 Java 关键字转换为标志位
// 返回 false 表示不是合法的修饰符关键字
func ParseModifier(name string) (Modifiers, bool) {
	for _, mn := range modifierNames {
		if mn.name == name {
			return mn.flag, true
		}
	}
	return ModNone, false
}
