package introspect

import (
	"strings"

	"go.uber.org/zap"

	"ejb-verifier/pkg/typemodel"
)

// ============================================================================
// 签名匹配
// ============================================================================

// MatchingMethod 在 c 的 public 方法（含继承）中查找与 m 名称、参数一致的方法
func (in *Inspector) MatchingMethod(c *typemodel.Class, m *typemodel.Method) *typemodel.Method {
	return findMethod(in.ts.Methods(c), m.Name, m.ParameterTypes)
}

// HasMatchingMethod 见 MatchingMethod
func (in *Inspector) HasMatchingMethod(c *typemodel.Class, m *typemodel.Method) bool {
	return in.MatchingMethod(c, m) != nil
}

// HasMatchingReturnType 两个方法返回类型一致
func HasMatchingReturnType(a, b *typemodel.Method) bool {
	return a.ReturnType == b.ReturnType
}

// HasMatchingExceptions source 声明的每个受检异常都被 target 的 throws 子句覆盖
// 覆盖：名称相同，或可以赋给 target 中的某个异常类型
// RuntimeException 与 Error 的子类豁免；source 中无法解析的异常视为已覆盖（记录 warn）
func (in *Inspector) HasMatchingExceptions(source, target *typemodel.Method) bool {
	for _, thrown := range source.ExceptionTypes {
		if containsName(target.ExceptionTypes, thrown) {
			continue
		}
		tc, err := in.ts.Resolve(thrown)
		if err != nil {
			in.log.Warn("exception type not resolvable, treating as covered",
				zap.String("exception", thrown), zap.String("method", source.Name))
			continue
		}
		if in.isUncheckedClass(tc) {
			continue
		}
		covered := false
		for _, declared := range target.ExceptionTypes {
			dc := in.resolve(declared)
			if dc != nil && in.ts.IsAssignableFrom(dc, tc) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// HasDefaultConstructor 存在 public 无参构造器
func (in *Inspector) HasDefaultConstructor(c *typemodel.Class) bool {
	for _, ctor := range in.ts.Constructors(c) {
		if ctor.Flags.IsPublic() && len(ctor.ParameterTypes) == 0 {
			return true
		}
	}
	return false
}

// HasFinalizer 类链上（Object 除外）声明了 finalize()
func (in *Inspector) HasFinalizer(c *typemodel.Class) bool {
	for _, k := range in.userChain(c) {
		if _, ok := k.DeclaredMethod("finalize"); ok {
			return true
		}
	}
	return false
}

// HasANonStaticField 类链上（Object 除外）存在非 static 字段
func (in *Inspector) HasANonStaticField(c *typemodel.Class) bool {
	return len(in.InstanceFields(c)) > 0
}

// IsAllFieldsPublic 类链上（Object 除外）的非 static 字段全部为 public
func (in *Inspector) IsAllFieldsPublic(c *typemodel.Class) bool {
	for _, f := range in.InstanceFields(c) {
		if !f.Flags.IsPublic() {
			return false
		}
	}
	return true
}

// InstanceFields 类链上（Object 除外）声明的非 static 字段，子类在前
func (in *Inspector) InstanceFields(c *typemodel.Class) []*typemodel.Field {
	var out []*typemodel.Field
	for _, k := range in.userChain(c) {
		for _, f := range in.ts.DeclaredFields(k) {
			if !f.Flags.IsStatic() {
				out = append(out, f)
			}
		}
	}
	return out
}

// FieldNamed 在类链上按名称查找声明的字段（任意可见性）
func (in *Inspector) FieldNamed(c *typemodel.Class, name string) *typemodel.Field {
	for _, k := range in.userChain(c) {
		if f, ok := k.DeclaredField(name); ok {
			return f
		}
	}
	return nil
}

// userChain 从 c 到 Object 之前的父类链
func (in *Inspector) userChain(c *typemodel.Class) []*typemodel.Class {
	var chain []*typemodel.Class
	seen := make(map[string]struct{})
	for cur := c; cur != nil && cur.Name != typemodel.ObjectClass; cur = in.ts.Superclass(cur) {
		if _, ok := seen[cur.Name]; ok {
			break
		}
		seen[cur.Name] = struct{}{}
		chain = append(chain, cur)
	}
	return chain
}

// HasIdentityMethods 类（Object 以外）提供 equals(Object) 与 hashCode() 的实现
func (in *Inspector) HasIdentityMethods(c *typemodel.Class) bool {
	var equals, hash bool
	for _, m := range in.ts.AllMethods(c) {
		if m.DeclaringClass == typemodel.ObjectClass || m.Flags.IsAbstract() {
			continue
		}
		switch {
		case m.Name == "equals" && len(m.ParameterTypes) == 1 &&
			m.ParameterTypes[0] == typemodel.ObjectClass && m.ReturnType == "boolean":
			equals = true
		case m.Name == "hashCode" && len(m.ParameterTypes) == 0 && m.ReturnType == "int":
			hash = true
		}
	}
	return equals && hash
}

// ============================================================================
// 方法收集
// ============================================================================

func filter(methods []*typemodel.Method, keep func(*typemodel.Method) bool) []*typemodel.Method {
	var out []*typemodel.Method
	for _, m := range methods {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func findMethod(methods []*typemodel.Method, name string, params []string) *typemodel.Method {
	want := &typemodel.Method{Name: name, ParameterTypes: params}
	for _, m := range methods {
		if m.Name == name && typemodel.SameParameterTypes(m, want) {
			return m
		}
	}
	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// CreateMethods home 接口的 create<METHOD> 方法
func (in *Inspector) CreateMethods(home *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.Methods(home), IsCreateMethod)
}

// FinderMethods home 接口的 find<METHOD> 方法
func (in *Inspector) FinderMethods(home *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.Methods(home), IsFinder)
}

// HasDefaultCreateMethod home 接口存在无参 create()
func (in *Inspector) HasDefaultCreateMethod(home *typemodel.Class) bool {
	return findMethod(in.ts.Methods(home), "create", nil) != nil
}

// HasMoreThanOneCreateMethod home 接口声明了多于一个 create 方法
func (in *Inspector) HasMoreThanOneCreateMethod(home *typemodel.Class) bool {
	return len(in.CreateMethods(home)) > 1
}

func (in *Inspector) EJBCreateMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), IsEJBCreate)
}

func (in *Inspector) EJBPostCreateMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), IsEJBPostCreate)
}

func (in *Inspector) EJBFindMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), IsEJBFind)
}

func (in *Inspector) EJBSelectMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), IsEJBSelect)
}

func (in *Inspector) EJBHomeMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), IsEJBHome)
}

func (in *Inspector) EJBRemoveMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), IsEJBRemove)
}

// MethodsNamed Bean 类链上名称完全等于 name 的方法
func (in *Inspector) MethodsNamed(bean *typemodel.Class, name string) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), func(m *typemodel.Method) bool { return m.Name == name })
}

// OnMessageMethods 满足 onMessage(javax.jms.Message) 形态的方法
func (in *Inspector) OnMessageMethods(bean *typemodel.Class) []*typemodel.Method {
	return filter(in.ts.AllMethods(bean), in.IsOnMessage)
}

// counterpart createFoo -> ejbCreateFoo、findByX -> ejbFindByX
func counterpart(prefix, name string) string {
	if name == "" {
		return prefix
	}
	return prefix + strings.ToUpper(name[:1]) + name[1:]
}

// MatchingEJBCreate home 中 create<METHOD> 对应的 ejbCreate<METHOD>
func (in *Inspector) MatchingEJBCreate(bean *typemodel.Class, create *typemodel.Method) *typemodel.Method {
	return findMethod(in.ts.AllMethods(bean), counterpart("ejb", create.Name), create.ParameterTypes)
}

// MatchingEJBPostCreate home 中 create<METHOD> 对应的 ejbPostCreate<METHOD>
func (in *Inspector) MatchingEJBPostCreate(bean *typemodel.Class, create *typemodel.Method) *typemodel.Method {
	return findMethod(in.ts.AllMethods(bean), counterpart("ejbPost", create.Name), create.ParameterTypes)
}

// MatchingEJBPostCreateFor ejbCreate<METHOD> 对应的 ejbPostCreate<METHOD>
func (in *Inspector) MatchingEJBPostCreateFor(bean *typemodel.Class, ejbCreate *typemodel.Method) *typemodel.Method {
	name := "ejbPost" + strings.TrimPrefix(ejbCreate.Name, "ejb")
	return findMethod(in.ts.AllMethods(bean), name, ejbCreate.ParameterTypes)
}

// MatchingEJBFind home 中 find<METHOD> 对应的 ejbFind<METHOD>
func (in *Inspector) MatchingEJBFind(bean *typemodel.Class, finder *typemodel.Method) *typemodel.Method {
	return findMethod(in.ts.AllMethods(bean), counterpart("ejb", finder.Name), finder.ParameterTypes)
}

// MatchingEJBHome home 中业务方法 <method> 对应的 ejbHome<Method>
func (in *Inspector) MatchingEJBHome(bean *typemodel.Class, m *typemodel.Method) *typemodel.Method {
	return findMethod(in.ts.AllMethods(bean), counterpart("ejbHome", m.Name), m.ParameterTypes)
}

// ============================================================================
// 返回类型与异常分类
// ============================================================================

// HasVoidReturnType 返回 void
func HasVoidReturnType(m *typemodel.Method) bool {
	return m.ReturnType == typemodel.Void
}

// HasReturnTypeAssignableFrom 返回类型可以接收 typeName 的值；解析失败时退化为名称相等
func (in *Inspector) HasReturnTypeAssignableFrom(m *typemodel.Method, typeName string) bool {
	if typeName == "" {
		return false
	}
	return in.isAssignable(m.ReturnType, typeName)
}

// HasRemoteReturnType 返回类型可以接收 remote 接口
func (in *Inspector) HasRemoteReturnType(remote string, m *typemodel.Method) bool {
	return in.HasReturnTypeAssignableFrom(m, remote)
}

// HasLocalReturnType 返回类型可以接收 local 接口
func (in *Inspector) HasLocalReturnType(local string, m *typemodel.Method) bool {
	return in.HasReturnTypeAssignableFrom(m, local)
}

// HasPrimaryKeyReturnType 返回类型可以接收主键类
func (in *Inspector) HasPrimaryKeyReturnType(primaryKey string, m *typemodel.Method) bool {
	return in.HasReturnTypeAssignableFrom(m, primaryKey)
}

// IsSingleObjectFinder 单对象查找器：返回主键（或其父类型）
func (in *Inspector) IsSingleObjectFinder(primaryKey string, m *typemodel.Method) bool {
	return in.HasPrimaryKeyReturnType(primaryKey, m)
}

// IsMultiObjectFinder 多对象查找器：返回 Collection 或 Enumeration 兼容类型
func (in *Inspector) IsMultiObjectFinder(m *typemodel.Method) bool {
	return in.isAssignable(CollectionClass, m.ReturnType) || in.isAssignable(EnumerationClass, m.ReturnType)
}

// throwsSupertypeOf 声明了 exception 本身或其父类型
func (in *Inspector) throwsSupertypeOf(m *typemodel.Method, exception string) bool {
	for _, declared := range m.ExceptionTypes {
		if in.isAssignable(declared, exception) {
			return true
		}
	}
	return false
}

// ThrowsCreateException throws 子句声明了 CreateException 或其父类型
func (in *Inspector) ThrowsCreateException(m *typemodel.Method) bool {
	return in.throwsSupertypeOf(m, CreateExceptionClass)
}

// ThrowsFinderException throws 子句声明了 FinderException 或其父类型
func (in *Inspector) ThrowsFinderException(m *typemodel.Method) bool {
	return in.throwsSupertypeOf(m, FinderExceptionClass)
}

// ThrowsRemoteException throws 子句能携带 RemoteException：
// 声明的类型为 RemoteException 或其父类型，IOException 与 Exception 直接接受
func (in *Inspector) ThrowsRemoteException(m *typemodel.Method) bool {
	for _, declared := range m.ExceptionTypes {
		if declared == typemodel.IOExceptionClass || declared == typemodel.ExceptionClass {
			return true
		}
	}
	return in.throwsSupertypeOf(m, RemoteExceptionClass)
}

// DeclaresRemoteException throws 子句声明了 RemoteException 或其子类
func (in *Inspector) DeclaresRemoteException(m *typemodel.Method) bool {
	for _, declared := range m.ExceptionTypes {
		if in.isAssignable(RemoteExceptionClass, declared) {
			return true
		}
	}
	return false
}

// ThrowsNoCheckedExceptions throws 子句只包含 RuntimeException 与 Error 的子类
// 无法解析的异常按受检异常处理
func (in *Inspector) ThrowsNoCheckedExceptions(m *typemodel.Method) bool {
	for _, declared := range m.ExceptionTypes {
		if !in.isUnchecked(declared) {
			return false
		}
	}
	return true
}

func (in *Inspector) isUnchecked(exception string) bool {
	c := in.resolve(exception)
	if c == nil {
		return false
	}
	return in.ts.IsSubclassOf(c, typemodel.RuntimeException) || in.ts.IsSubclassOf(c, typemodel.ErrorClass)
}

// IsDeclaredBy 方法由 names 中的某个类型声明
func IsDeclaredBy(m *typemodel.Method, names ...string) bool {
	return containsName(names, m.DeclaringClass)
}
