package typemodel

import (
	"errors"
	"sync"
)

// TypeSystem 类型系统
// 职责：名称解析、可赋值性判断、成员枚举（相当于 Class.forName / isAssignableFrom / getMethods）
// 设计原则：
//   - 基本类型与数组由类型系统自行合成，其它类型委托给 ClassLoader
//   - 解析结果（包括失败）会被缓存，保证同一输入多次验证结果完全一致
//   - 并发安全：多个部署单元可以共享同一个 TypeSystem
type TypeSystem struct {
	loader ClassLoader

	mu       sync.RWMutex
	resolved map[string]*Class
	failed   map[string]error
}

// NewTypeSystem 创建类型系统
func NewTypeSystem(loader ClassLoader) *TypeSystem {
	if loader == nil {
		loader = Chain()
	}
	return &TypeSystem{
		loader:   loader,
		resolved: make(map[string]*Class),
		failed:   make(map[string]error),
	}
}

// Loader 返回底层加载器
func (ts *TypeSystem) Loader() ClassLoader {
	return ts.loader
}

// Resolve 解析类型名
func (ts *TypeSystem) Resolve(name string) (*Class, error) {
	if name == "" {
		return nil, NotFound("<empty>")
	}

	ts.mu.RLock()
	if c, ok := ts.resolved[name]; ok {
		ts.mu.RUnlock()
		return c, nil
	}
	if err, ok := ts.failed[name]; ok {
		ts.mu.RUnlock()
		return nil, err
	}
	ts.mu.RUnlock()

	c, err := ts.resolve(name)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err != nil {
		ts.failed[name] = err
		return nil, err
	}
	// 并发解析同名类时以先写入者为准
	if existing, ok := ts.resolved[name]; ok {
		return existing, nil
	}
	ts.resolved[name] = c
	return c, nil
}

func (ts *TypeSystem) resolve(name string) (*Class, error) {
	if IsPrimitiveName(name) {
		return &Class{
			Name:  name,
			Kind:  KindPrimitive,
			Flags: ModPublic | ModFinal | ModAbstract,
		}, nil
	}

	if componentName, ok := ComponentName(name); ok {
		component, err := ts.Resolve(componentName)
		if err != nil {
			return nil, err
		}
		return &Class{
			Name:           name,
			Kind:           KindArray,
			Flags:          (component.Flags & (ModPublic | ModPrivate | ModProtected)) | ModFinal | ModAbstract,
			SuperName:      ObjectClass,
			InterfaceNames: []string{CloneableClass, SerializableClass},
			Component:      component,
		}, nil
	}

	return ts.loader.LoadClass(name)
}

// MustResolve 解析失败时返回 nil（用于已知类型一定存在的内部场景）
func (ts *TypeSystem) MustResolve(name string) *Class {
	c, _ := ts.Resolve(name)
	return c
}

// ============================================================================
// 可赋值性
// ============================================================================

// IsAssignableFrom 判断 source 类型的值能否赋给 target 类型（Class.isAssignableFrom 语义）
// 无法解析的父类型视为不存在
func (ts *TypeSystem) IsAssignableFrom(target, source *Class) bool {
	if target == nil || source == nil {
		return false
	}
	if target.Name == source.Name {
		return true
	}
	if target.IsPrimitive() || source.IsPrimitive() {
		return false
	}

	if source.IsArray() {
		if target.IsArray() {
			tc, sc := target.Component, source.Component
			if tc.IsPrimitive() || sc.IsPrimitive() {
				return tc.Name == sc.Name
			}
			return ts.IsAssignableFrom(tc, sc)
		}
		switch target.Name {
		case ObjectClass, CloneableClass, SerializableClass:
			return true
		}
		return false
	}
	if target.IsArray() {
		return false
	}

	if target.Name == ObjectClass {
		return true
	}

	found := false
	ts.walkSupertypes(source, func(c *Class) bool {
		if c.Name == target.Name {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsAssignableFromName 按名称判断可赋值性，任一名称无法解析时返回错误
func (ts *TypeSystem) IsAssignableFromName(targetName, sourceName string) (bool, error) {
	target, err := ts.Resolve(targetName)
	if err != nil {
		return false, err
	}
	source, err := ts.Resolve(sourceName)
	if err != nil {
		return false, err
	}
	return ts.IsAssignableFrom(target, source), nil
}

// IsSubclassOf 判断 c 是否为 name 指定类型的子类型（含自身），name 无法解析时视为 false
func (ts *TypeSystem) IsSubclassOf(c *Class, name string) bool {
	target, err := ts.Resolve(name)
	if err != nil {
		return false
	}
	return ts.IsAssignableFrom(target, c)
}

// walkSupertypes 广度优先遍历所有父类型（父类链与接口），visit 返回 false 时停止
func (ts *TypeSystem) walkSupertypes(c *Class, visit func(*Class) bool) {
	seen := map[string]struct{}{c.Name: {}}
	queue := ts.directSupertypes(c, seen)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if !visit(next) {
			return
		}
		queue = append(queue, ts.directSupertypes(next, seen)...)
	}
}

func (ts *TypeSystem) directSupertypes(c *Class, seen map[string]struct{}) []*Class {
	names := make([]string, 0, len(c.InterfaceNames)+1)
	if c.SuperName != "" {
		names = append(names, c.SuperName)
	}
	names = append(names, c.InterfaceNames...)

	result := make([]*Class, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if s, err := ts.Resolve(name); err == nil {
			result = append(result, s)
		}
	}
	return result
}

// Superclass 解析直接父类，没有父类或无法解析时返回 nil
func (ts *TypeSystem) Superclass(c *Class) *Class {
	if c == nil || c.SuperName == "" || c.IsInterface() {
		return nil
	}
	s, err := ts.Resolve(c.SuperName)
	if err != nil {
		return nil
	}
	return s
}

// DeclaringClass 解析外部类
func (ts *TypeSystem) DeclaringClass(c *Class) (*Class, error) {
	if c == nil || c.DeclaringName == "" {
		return nil, errors.New("not a member class")
	}
	return ts.Resolve(c.DeclaringName)
}

// ============================================================================
// 成员枚举
// ============================================================================

// DeclaredMethods 本类声明的方法
func (ts *TypeSystem) DeclaredMethods(c *Class) []*Method {
	if c == nil {
		return nil
	}
	return c.Methods
}

// Methods 所有 public 方法（包括继承的），与 Class.getMethods 一致
// 子类声明会遮蔽父类型中签名相同的方法
func (ts *TypeSystem) Methods(c *Class) []*Method {
	if c == nil || c.IsPrimitive() {
		return nil
	}
	if c.IsArray() {
		return ts.Methods(ts.MustResolve(ObjectClass))
	}

	collector := newMethodSet()
	if c.IsInterface() {
		collector.addPublic(c.Methods)
		ts.walkSupertypes(c, func(s *Class) bool {
			if s.IsInterface() {
				collector.addPublic(s.Methods)
			}
			return true
		})
		return collector.list
	}

	chain := ts.classChain(c)
	for _, k := range chain {
		collector.addPublic(k.Methods)
	}
	for _, k := range chain {
		ts.collectInterfaceMethods(k, collector)
	}
	return collector.list
}

// AllMethods 类链上声明的全部方法（任意可见性）加上所实现接口的 public 方法
// 用于扫描 Bean 实现类：非 public 的 ejbCreate 等方法也需要被检查到
func (ts *TypeSystem) AllMethods(c *Class) []*Method {
	if c == nil || c.IsPrimitive() {
		return nil
	}
	if c.IsInterface() || c.IsArray() {
		return ts.Methods(c)
	}

	collector := newMethodSet()
	chain := ts.classChain(c)
	for _, k := range chain {
		if k.Name == ObjectClass {
			// Object 上只保留 public 方法
			collector.addPublic(k.Methods)
			continue
		}
		collector.addAll(k.Methods)
	}
	for _, k := range chain {
		ts.collectInterfaceMethods(k, collector)
	}
	return collector.list
}

func (ts *TypeSystem) collectInterfaceMethods(k *Class, collector *methodSet) {
	for _, name := range k.InterfaceNames {
		iface, err := ts.Resolve(name)
		if err != nil {
			continue
		}
		collector.addPublic(ts.Methods(iface))
	}
}

// classChain 从自身到 Object 的父类链
func (ts *TypeSystem) classChain(c *Class) []*Class {
	chain := []*Class{c}
	seen := map[string]struct{}{c.Name: {}}
	for cur := ts.Superclass(c); cur != nil; cur = ts.Superclass(cur) {
		if _, ok := seen[cur.Name]; ok {
			break
		}
		seen[cur.Name] = struct{}{}
		chain = append(chain, cur)
	}
	return chain
}

// DeclaredFields 本类声明的字段
func (ts *TypeSystem) DeclaredFields(c *Class) []*Field {
	if c == nil {
		return nil
	}
	return c.Fields
}

// Fields 所有 public 字段（包括继承的），与 Class.getFields 一致
func (ts *TypeSystem) Fields(c *Class) []*Field {
	if c == nil || c.IsPrimitive() || c.IsArray() {
		return nil
	}

	seen := make(map[string]struct{})
	var result []*Field
	add := func(fields []*Field) {
		for _, f := range fields {
			if !f.Flags.IsPublic() {
				continue
			}
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			result = append(result, f)
		}
	}

	add(c.Fields)
	ts.walkSupertypes(c, func(s *Class) bool {
		add(s.Fields)
		return true
	})
	return result
}

// Constructors 本类声明的构造器
func (ts *TypeSystem) Constructors(c *Class) []*Method {
	if c == nil {
		return nil
	}
	return c.Constructors
}

// methodSet 按签名去重的有序方法集合
type methodSet struct {
	seen map[string]struct{}
	list []*Method
}

func newMethodSet() *methodSet {
	return &methodSet{seen: make(map[string]struct{})}
}

func (s *methodSet) add(m *Method) {
	key := m.Signature()
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.list = append(s.list, m)
}

func (s *methodSet) addAll(methods []*Method) {
	for _, m := range methods {
		s.add(m)
	}
}

func (s *methodSet) addPublic(methods []*Method) {
	for _, m := range methods {
		if m.Flags.IsPublic() {
			s.add(m)
		}
	}
}
