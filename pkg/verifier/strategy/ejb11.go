package strategy

import (
	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/introspect"
)

// ============================================================================
// EJB 1.1 规则引擎
// ============================================================================

// ejb11 EJB 1.1 规则：会话 Bean 6.x，实体 Bean 9.x，类缺失 16.2.x
// 2.x 引擎通过组合持有一个 ejb11，用于 CMP 1.x 实体
type ejb11 struct {
	*checker
}

var (
	session11Class = classRules{
		marker:      introspect.SessionBeanClass,
		implements:  "6.5.1",
		public:      "6.10.2.a",
		final:       "6.10.2.b",
		abstract:    "6.10.2.c",
		constructor: "6.10.2.d",
		finalizer:   "6.10.2.e",
	}

	session11Create = createRules{public: "6.10.3.b", final: "6.10.3.c", static: "6.10.3.d", returns: "6.10.3.e", args: "6.10.3.f"}

	session11Home = &sessionHomeRules{
		marker:              introspect.EJBHomeClass,
		extends:             "6.10.6.a",
		args:                "6.10.6.b",
		returns:             "6.10.6.c",
		throwsRemote:        "6.10.6.d",
		atLeastOneCreate:    "6.10.6.e",
		createMatch:         "6.10.6.f",
		createReturn:        "6.10.6.g",
		createExceptions:    "6.10.6.h",
		createException:     "6.10.6.i",
		onlyCreate:          "6.10.6.j",
		exceptionTypes:      "6.10.6.k",
		defaultCreate:       "6.8.a",
		defaultCreateReturn: "6.8.b",
		otherCreates:        "6.8.c",
	}

	entity11Class = classRules{
		marker:      introspect.EntityBeanClass,
		implements:  "9.2.2.a",
		public:      "9.2.2.b",
		final:       "9.2.2.c",
		abstract:    "9.2.2.d",
		constructor: "9.2.2.e",
		finalizer:   "9.2.2.f",
	}

	entity11Create = createRules{public: "9.2.3.a", final: "9.2.3.b", static: "9.2.3.c", returns: "9.2.3.d", args: "9.2.3.e"}

	entity11Home = &entityHomeRules{
		marker:           introspect.EJBHomeClass,
		extends:          "9.2.8.a",
		args:             "9.2.8.b",
		returns:          "9.2.8.c",
		throwsRemote:     "9.2.8.d",
		exceptionTypes:   "9.2.8.p",
		onlyCreateFind:   "9.2.8.e",
		createMatch:      "9.2.8.f",
		postCreateMatch:  "9.2.8.g",
		createReturn:     "9.2.8.h",
		createExceptions: "9.2.8.i",
		createException:  "9.2.8.j",
		findByPrimaryKey: "9.2.8.k",
		finderReturn:     "9.2.8.l",
		finderException:  "9.2.8.m",
		finderMatch:      "9.2.8.n",
		finderExceptions: "9.2.8.o",
	}
)

// CheckSession 会话 Bean：Bean 类、home、remote
func (v *ejb11) CheckSession(s *metadata.SessionMetaData) bool {
	ok := true

	cls := v.load(s, s.EJBClass(), "16.2.b")
	if cls != nil {
		ok = v.checkSessionBean(s, cls) && ok
	} else {
		ok = false
	}

	if home := v.load(s, s.Home(), "16.2.c"); home != nil {
		ok = v.checkSessionHome(s, home, cls, s.Remote(), session11Home) && ok
	} else {
		ok = false
	}

	if remote := v.load(s, s.Remote(), "16.2.d"); remote != nil {
		ok = v.checkRemoteComponent(s, remote, cls, "6.10.5") && ok
	} else {
		ok = false
	}

	return v.finish(s, ok)
}

func (v *ejb11) checkSessionBean(s *metadata.SessionMetaData, cls *typemodel.Class) bool {
	ok := v.checkClassStructure(s, cls, session11Class)

	if v.in.HasSessionSynchronizationInterface(cls) {
		if s.IsStateless() {
			v.fire(s, nil, "6.5.3.a")
			ok = false
		}
		if !s.IsContainerManagedTx() {
			v.fire(s, nil, "6.5.3.b")
			ok = false
		}
	}

	if len(v.in.EJBCreateMethods(cls)) == 0 {
		v.fire(s, nil, "6.10.3.a")
		ok = false
	}
	ok = v.checkEJBCreates(s, cls, session11Create, "", true) && ok

	if s.IsStateless() {
		if v.noArgMethod(cls, "ejbCreate") == nil {
			v.fire(s, nil, "6.8.d")
			ok = false
		}
	}
	return ok
}

// CheckEntity 实体 Bean（BMP 与 CMP 1.x）：Bean 类、home、remote、主键
func (v *ejb11) CheckEntity(entity *metadata.EntityMetaData) bool {
	ok := true

	cls := v.load(entity, entity.EJBClass(), "16.2.b")
	if cls != nil {
		ok = v.checkEntityBean(entity, cls) && ok
	} else {
		ok = false
	}

	if home := v.load(entity, entity.Home(), "16.2.c"); home != nil {
		ok = v.checkEntityHome(entity, home, cls, entity.Remote(), entity11Home) && ok
	} else {
		ok = false
	}

	if remote := v.load(entity, entity.Remote(), "16.2.d"); remote != nil {
		ok = v.checkRemoteComponent(entity, remote, cls, "9.2.7") && ok
	} else {
		ok = false
	}

	ok = v.checkPrimaryKey(entity, cls) && ok

	return v.finish(entity, ok)
}

// CheckMessageBean EJB 1.1 没有消息驱动 Bean
func (v *ejb11) CheckMessageBean(mdb *metadata.MessageDrivenMetaData) bool {
	v.fire(mdb, nil, "16.1")
	return false
}

func (v *ejb11) checkEntityBean(entity *metadata.EntityMetaData, cls *typemodel.Class) bool {
	ok := v.checkClassStructure(entity, cls, entity11Class)
	ok = v.checkEJBCreates(entity, cls, entity11Create, entity.PrimKeyClass, true) && ok
	ok = v.checkEJBPostCreates(entity, cls, "9.2.4") && ok

	if entity.IsBMP() {
		ok = v.checkEJBFinds(entity, cls, "9.2.5", true) && ok
	} else {
		if len(v.in.EJBFindMethods(cls)) > 0 {
			v.fire(entity, nil, "9.4.6.a")
			ok = false
		}
		ok = v.checkCMPFields(entity, cls) && ok
	}
	return ok
}

// checkCMPFields CMP 1.x 的 cmp-field 必须是 Bean 类上 public、非 static、非 transient 的字段
func (v *ejb11) checkCMPFields(entity *metadata.EntityMetaData, cls *typemodel.Class) bool {
	ok := true
	for _, name := range entity.CMPFields {
		f := v.in.FieldNamed(cls, name)
		if f == nil {
			v.fire(entity, nil, "9.4.1.a", name)
			ok = false
			continue
		}
		if !f.Flags.IsPublic() {
			v.fire(entity, nil, "9.4.1.b", name)
			ok = false
		}
		if f.Flags.IsStatic() || f.Flags.IsTransient() {
			v.fire(entity, nil, "9.4.1.c", name)
			ok = false
		}
	}
	return ok
}

// checkPrimaryKey 主键类可加载；声明 prim-key-field 时字段类型与主键类同名，否则按复合主键检查
func (v *ejb11) checkPrimaryKey(entity *metadata.EntityMetaData, cls *typemodel.Class) bool {
	pk := v.load(entity, entity.PrimKeyClass, "16.2.e")
	if pk == nil {
		return false
	}

	ok := true
	if entity.PrimKeyField != "" {
		if !entity.HasCMPField(entity.PrimKeyField) {
			v.fire(entity, nil, "9.4.7.1.a", entity.PrimKeyField)
			ok = false
		}
		if cls != nil {
			if f := v.in.FieldNamed(cls, entity.PrimKeyField); f != nil && f.Type != entity.PrimKeyClass {
				v.fire(entity, nil, "9.4.7.1.b", entity.PrimKeyField)
				ok = false
			}
		}
		return ok
	}

	if !v.in.IsRMIIDLValueType(pk) {
		v.fire(entity, nil, "9.2.9.a", pk.Name)
		ok = false
	}
	if entity.IsCMP() {
		ok = v.checkCompoundKey(entity, pk, "9.4.7.2") && ok
	}
	if !v.checkIdentity(entity, pk) && v.strictPK {
		v.fire(entity, nil, "9.2.9.b", pk.Name)
		ok = false
	}
	return ok
}
