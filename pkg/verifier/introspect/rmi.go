package introspect

import (
	"go.uber.org/zap"

	"ejb-verifier/pkg/typemodel"
)

// ============================================================================
// RMI/IIOP 合规检查
// ============================================================================
//
// 合规类型按以下顺序判定：
//   1. 基本类型
//   2. 数组：元素类型合规
//   3. CORBA 对象引用或 IDLEntity
//   4. 合规的远程接口
//   5. 合规的异常
//   6. 合规的值类型
// 无法解析的类型记录 warn 后按合规值类型处理

// IsRMIIIOPType 类型名是否为合法的 RMI/IIOP 类型
func (in *Inspector) IsRMIIIOPType(name string) bool {
	if typemodel.IsPrimitiveName(name) {
		return true
	}
	if component, ok := typemodel.ComponentName(name); ok {
		return in.IsRMIIIOPType(component)
	}

	c, err := in.ts.Resolve(name)
	if err != nil {
		in.log.Warn("type not resolvable, treating as RMI/IIOP value type", zap.String("type", name), zap.Error(err))
		return true
	}
	if in.ts.IsSubclassOf(c, CORBAObjectClass) || in.ts.IsSubclassOf(c, IDLEntityClass) {
		return true
	}
	if in.IsRMIIDLRemoteInterface(c) {
		return true
	}
	if in.IsRMIIDLExceptionType(c) {
		return true
	}
	return in.IsRMIIDLValueType(c)
}

// IsRMIIDLRemoteInterface 合规的远程接口：
// 继承 java.rmi.Remote，每个方法都能抛出 RemoteException，
// 其它受检异常为合规异常，常量字段为基本类型或 String
func (in *Inspector) IsRMIIDLRemoteInterface(c *typemodel.Class) bool {
	if c == nil || !c.IsInterface() || !in.ts.IsSubclassOf(c, RemoteMarker) {
		return false
	}

	for _, m := range in.ts.Methods(c) {
		if !in.ThrowsRemoteException(m) {
			return false
		}
		for _, exception := range m.ExceptionTypes {
			if !in.isLegalRemoteInterfaceException(exception) {
				return false
			}
		}
	}

	for _, f := range in.ts.Fields(c) {
		if !typemodel.IsPrimitiveName(f.Type) && f.Type != typemodel.StringClass {
			return false
		}
	}
	return true
}

func (in *Inspector) isLegalRemoteInterfaceException(exception string) bool {
	c, err := in.ts.Resolve(exception)
	if err != nil {
		return true
	}
	if in.ts.IsSubclassOf(c, RemoteExceptionClass) {
		return true
	}
	// RemoteException 的父类型满足"能抛出 RemoteException"
	if remote, err := in.ts.Resolve(RemoteExceptionClass); err == nil && in.ts.IsAssignableFrom(c, remote) {
		return true
	}
	if in.isUncheckedClass(c) {
		return true
	}
	return in.IsRMIIDLExceptionType(c)
}

// IsRMIIDLExceptionType 合规异常：Throwable 的子类，不是 Error，且是合规值类型
func (in *Inspector) IsRMIIDLExceptionType(c *typemodel.Class) bool {
	if c == nil || !in.ts.IsSubclassOf(c, typemodel.ThrowableClass) {
		return false
	}
	if in.ts.IsSubclassOf(c, typemodel.ErrorClass) {
		return false
	}
	return in.IsRMIIDLValueType(c)
}

// IsRMIIDLValueType 合规值类型：不实现 java.rmi.Remote；
// 非 static 成员类要求其外部类同样是合规值类型
func (in *Inspector) IsRMIIDLValueType(c *typemodel.Class) bool {
	seen := make(map[string]struct{})
	for cur := c; cur != nil; {
		if _, ok := seen[cur.Name]; ok {
			return true
		}
		seen[cur.Name] = struct{}{}

		if in.ts.IsSubclassOf(cur, RemoteMarker) {
			return false
		}
		if !cur.IsMemberClass() || cur.Flags.IsStatic() {
			return true
		}
		outer, err := in.ts.DeclaringClass(cur)
		if err != nil {
			in.log.Warn("declaring class not resolvable", zap.String("class", cur.Name), zap.Error(err))
			return true
		}
		cur = outer
	}
	return true
}

// HasLegalRMIIIOPArguments 所有参数都是 RMI/IIOP 类型
func (in *Inspector) HasLegalRMIIIOPArguments(m *typemodel.Method) bool {
	for _, p := range m.ParameterTypes {
		if !in.IsRMIIIOPType(p) {
			return false
		}
	}
	return true
}

// HasLegalRMIIIOPReturnType 返回类型是 RMI/IIOP 类型（void 合法）
func (in *Inspector) HasLegalRMIIIOPReturnType(m *typemodel.Method) bool {
	return in.IsRMIIIOPType(m.ReturnType)
}

// HasLegalRMIIIOPExceptionTypes 每个受检异常都是合规异常
func (in *Inspector) HasLegalRMIIIOPExceptionTypes(m *typemodel.Method) bool {
	for _, exception := range m.ExceptionTypes {
		c, err := in.ts.Resolve(exception)
		if err != nil {
			in.log.Warn("exception type not resolvable, treating as legal", zap.String("exception", exception))
			continue
		}
		if in.isUncheckedClass(c) {
			continue
		}
		if !in.IsRMIIDLExceptionType(c) {
			return false
		}
	}
	return true
}

func (in *Inspector) isUncheckedClass(c *typemodel.Class) bool {
	return in.ts.IsSubclassOf(c, typemodel.RuntimeException) || in.ts.IsSubclassOf(c, typemodel.ErrorClass)
}
