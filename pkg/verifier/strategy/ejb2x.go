package strategy

import (
	"go.uber.org/zap"

	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/core"
	"ejb-verifier/pkg/verifier/introspect"
)

// ============================================================================
// EJB 2.0 / 2.1 规则引擎
// ============================================================================

// ejb2x EJB 2.0/2.1 规则：会话 Bean 7.x，CMP 2.x 10.x，BMP 12.x，消息驱动 15.7.x，类缺失 22.2.x
// CMP 1.x 实体交给 cmp1（EJB 1.1 规则）
type ejb2x struct {
	*checker
	cmp1 *ejb11
}

var (
	session2xClass = classRules{
		marker:      introspect.SessionBeanClass,
		implements:  "7.5.1",
		public:      "7.10.2.a",
		final:       "7.10.2.b",
		abstract:    "7.10.2.c",
		constructor: "7.10.2.d",
		finalizer:   "7.10.2.e",
	}

	session2xCreate = createRules{public: "7.10.3.b", final: "7.10.3.c", static: "7.10.3.d", returns: "7.10.3.e", args: "7.10.3.f"}

	session2xHome = &sessionHomeRules{
		marker:           introspect.EJBHomeClass,
		extends:          "7.10.6.a",
		args:             "7.10.6.b",
		returns:          "7.10.6.c",
		throwsRemote:     "7.10.6.d",
		exceptionTypes:   "7.10.6.l",
		atLeastOneCreate: "7.10.6.e",
		createMatch:      "7.10.6.f",
		createReturn:     "7.10.6.g",
		createExceptions: "7.10.6.h",
		createException:  "7.10.6.i",
		defaultCreate:    "7.10.6.j",
		otherCreates:     "7.10.6.k",
	}

	session2xLocalHome = &sessionHomeRules{
		local:            true,
		marker:           introspect.EJBLocalHomeClass,
		extends:          "7.10.8.a",
		noRemote:         "7.10.8.b",
		atLeastOneCreate: "7.10.8.c",
		createMatch:      "7.10.8.d",
		createReturn:     "7.10.8.e",
		createExceptions: "7.10.8.f",
		createException:  "7.10.8.g",
		defaultCreate:    "7.10.8.h",
		otherCreates:     "7.10.8.i",
	}

	messageDrivenClass = classRules{
		marker:      introspect.MessageDrivenBeanClass,
		implements:  "15.7.2.a",
		public:      "15.7.2.c",
		final:       "15.7.2.d",
		abstract:    "15.7.2.e",
		constructor: "15.7.2.f",
		finalizer:   "15.7.2.g",
	}
)

// entityRules CMP 2.x 与 BMP 的规则形状相同，只是章节号不同
type entityRules struct {
	viewRequired string
	class        classRules
	create       createRules
	postCreate   string
	ejbHome      string
	ejbFind      string
	remoteHome   *entityHomeRules
	remote       string
	localHome    *entityHomeRules
	local        string
	valueType    string
}

var (
	cmp2xRules = &entityRules{
		viewRequired: "10.6.1",
		class: classRules{
			marker:         introspect.EntityBeanClass,
			implements:     "10.6.2.a",
			public:         "10.6.2.b",
			final:          "10.6.2.c",
			abstract:       "10.6.2.d",
			mustBeAbstract: true,
			constructor:    "10.6.2.e",
			finalizer:      "10.6.2.f",
		},
		create:     createRules{public: "10.6.4.a", final: "10.6.4.b", static: "10.6.4.c", returns: "10.6.4.d", args: "10.6.4.e"},
		postCreate: "10.6.5",
		ejbHome:    "10.6.6",
		remoteHome: remoteEntityHome("10.6.10"),
		remote:     "10.6.9",
		localHome:  localEntityHome("10.6.12"),
		local:      "10.6.11",
		valueType:  "10.6.13.a",
	}

	bmpRules = &entityRules{
		viewRequired: "12.2.1",
		class: classRules{
			marker:      introspect.EntityBeanClass,
			implements:  "12.2.2.a",
			public:      "12.2.2.b",
			final:       "12.2.2.c",
			abstract:    "12.2.2.d",
			constructor: "12.2.2.e",
			finalizer:   "12.2.2.f",
		},
		create:     createRules{public: "12.2.3.a", final: "12.2.3.b", static: "12.2.3.c", returns: "12.2.3.d", args: "12.2.3.e"},
		postCreate: "12.2.4",
		ejbHome:    "12.2.6",
		ejbFind:    "12.2.5",
		remoteHome: remoteEntityHome("12.2.9"),
		remote:     "12.2.8",
		localHome:  localEntityHome("12.2.11"),
		local:      "12.2.10",
		valueType:  "12.2.12.a",
	}
)

// views Bean 声明的客户端视图
type views struct {
	remote bool
	local  bool
}

func viewsOf(bean metadata.BeanMetaData) views {
	return views{
		remote: bean.Home() != "" || bean.Remote() != "",
		local:  bean.LocalHome() != "" || bean.Local() != "",
	}
}

// ============================================================================
// 会话 Bean
// ============================================================================

// CheckSession 会话 Bean：视图、Bean 类、home/remote、local home/local
func (v *ejb2x) CheckSession(s *metadata.SessionMetaData) bool {
	ok := true
	vw := viewsOf(s)
	if !vw.remote && !vw.local {
		v.fire(s, nil, "7.10.1")
		ok = false
	}

	cls := v.load(s, s.EJBClass(), "22.2.b")
	if cls != nil {
		ok = v.checkSessionBean(s, cls, vw) && ok
	} else {
		ok = false
	}

	if vw.remote {
		if home := v.load(s, s.Home(), "22.2.c"); home != nil {
			ok = v.checkSessionHome(s, home, cls, s.Remote(), session2xHome) && ok
		} else {
			ok = false
		}
		if remote := v.load(s, s.Remote(), "22.2.d"); remote != nil {
			ok = v.checkRemoteComponent(s, remote, cls, "7.10.5") && ok
		} else {
			ok = false
		}
	}

	if vw.local {
		if localHome := v.load(s, s.LocalHome(), "22.2.e"); localHome != nil {
			ok = v.checkSessionHome(s, localHome, cls, s.Local(), session2xLocalHome) && ok
		} else {
			ok = false
		}
		if local := v.load(s, s.Local(), "22.2.f"); local != nil {
			ok = v.checkLocalComponent(s, local, cls, "7.10.7") && ok
		} else {
			ok = false
		}
	}

	return v.finish(s, ok)
}

func (v *ejb2x) checkSessionBean(s *metadata.SessionMetaData, cls *typemodel.Class, vw views) bool {
	ok := v.checkClassStructure(s, cls, session2xClass)

	if v.in.HasSessionSynchronizationInterface(cls) {
		if s.IsStateless() {
			v.fire(s, nil, "7.5.3.a")
			ok = false
		}
		if !s.IsContainerManagedTx() {
			v.fire(s, nil, "7.5.3.b")
			ok = false
		}
	}

	creates := v.in.EJBCreateMethods(cls)
	if len(creates) == 0 {
		v.fire(s, nil, "7.10.3.a")
		ok = false
	}
	ok = v.checkEJBCreates(s, cls, session2xCreate, "", vw.remote) && ok

	if s.IsStateless() {
		if v.noArgMethod(cls, "ejbCreate") == nil {
			v.fire(s, nil, "7.8.a")
			ok = false
		}
		if len(creates) > 1 {
			v.fire(s, nil, "7.8.b")
			ok = false
		}
	}
	return ok
}

// ============================================================================
// 实体 Bean
// ============================================================================

// CheckEntity CMP 1.x 使用 EJB 1.1 规则，BMP 与 CMP 2.x 使用本引擎
func (v *ejb2x) CheckEntity(entity *metadata.EntityMetaData) bool {
	var rules *entityRules
	switch Classify(entity) {
	case core.KindEntityCMP1:
		return v.cmp1.CheckEntity(entity)
	case core.KindEntityBMP:
		rules = bmpRules
	default:
		rules = cmp2xRules
	}

	ok := true
	vw := viewsOf(entity)
	if !vw.remote && !vw.local {
		v.fire(entity, nil, rules.viewRequired)
		ok = false
	}

	cls := v.load(entity, entity.EJBClass(), "22.2.b")
	if cls != nil {
		ok = v.checkEntityBean(entity, cls, rules, vw) && ok
	} else {
		ok = false
	}

	if vw.remote {
		if home := v.load(entity, entity.Home(), "22.2.c"); home != nil {
			ok = v.checkEntityHome(entity, home, cls, entity.Remote(), rules.remoteHome) && ok
		} else {
			ok = false
		}
		if remote := v.load(entity, entity.Remote(), "22.2.d"); remote != nil {
			ok = v.checkRemoteComponent(entity, remote, cls, rules.remote) && ok
		} else {
			ok = false
		}
	}

	if vw.local {
		if localHome := v.load(entity, entity.LocalHome(), "22.2.e"); localHome != nil {
			ok = v.checkEntityHome(entity, localHome, cls, entity.Local(), rules.localHome) && ok
		} else {
			ok = false
		}
		if local := v.load(entity, entity.Local(), "22.2.f"); local != nil {
			ok = v.checkLocalComponent(entity, local, cls, rules.local) && ok
		} else {
			ok = false
		}
	}

	ok = v.checkPrimaryKey(entity, cls, rules, vw) && ok

	return v.finish(entity, ok)
}

func (v *ejb2x) checkEntityBean(entity *metadata.EntityMetaData, cls *typemodel.Class, rules *entityRules, vw views) bool {
	ok := v.checkClassStructure(entity, cls, rules.class)

	if entity.IsCMP() && len(v.in.EJBFindMethods(cls)) > 0 {
		v.fire(entity, nil, "10.6.2.g")
		ok = false
	}

	ok = v.checkEJBCreates(entity, cls, rules.create, entity.PrimKeyClass, vw.remote) && ok
	ok = v.checkEJBPostCreates(entity, cls, rules.postCreate) && ok
	ok = v.checkEJBHomeMethods(entity, cls, rules.ejbHome) && ok

	if entity.IsBMP() {
		ok = v.checkEJBFinds(entity, cls, rules.ejbFind, vw.remote) && ok
	} else {
		ok = v.checkEJBSelects(entity, cls) && ok
		ok = v.checkCMPAccessors(entity, cls) && ok
	}
	return ok
}

// checkEJBHomeMethods 章节字母：a public，b 非 static，c 不得抛 RemoteException
func (v *ejb2x) checkEJBHomeMethods(entity *metadata.EntityMetaData, cls *typemodel.Class, prefix string) bool {
	ok := true
	for _, m := range v.in.EJBHomeMethods(cls) {
		if !introspect.IsPublic(m) {
			v.fire(entity, m, sec(prefix, "a"))
			ok = false
		}
		if introspect.IsStatic(m) {
			v.fire(entity, m, sec(prefix, "b"))
			ok = false
		}
		if v.in.DeclaresRemoteException(m) {
			v.fire(entity, m, sec(prefix, "c"))
			ok = false
		}
	}
	return ok
}

func (v *ejb2x) checkEJBSelects(entity *metadata.EntityMetaData, cls *typemodel.Class) bool {
	ok := true
	for _, m := range v.in.EJBSelectMethods(cls) {
		if !introspect.IsAbstract(m) {
			v.fire(entity, m, "10.6.7.a")
			ok = false
		}
		if !introspect.IsPublic(m) {
			v.fire(entity, m, "10.6.7.b")
			ok = false
		}
		if !v.in.ThrowsFinderException(m) {
			v.fire(entity, m, "10.6.7.c")
			ok = false
		}
	}
	return ok
}

// checkCMPAccessors 每个 cmp-field 都要有符合 JavaBeans 约定的 abstract public 访问器
func (v *ejb2x) checkCMPAccessors(entity *metadata.EntityMetaData, cls *typemodel.Class) bool {
	ok := true
	for _, field := range entity.CMPFields {
		ok = v.checkCMPField(entity, cls, field) && ok
	}
	return ok
}

func (v *ejb2x) checkCMPField(entity *metadata.EntityMetaData, cls *typemodel.Class, field string) bool {
	ok := true
	name := capitalize(field)

	var getterType string
	getters := v.in.MethodsNamed(cls, "get"+name)
	if len(getters) == 0 {
		v.fire(entity, nil, "jb.7.1.a", field)
		ok = false
	} else {
		getter := getters[0]
		if len(getter.ParameterTypes) != 0 || introspect.HasVoidReturnType(getter) {
			v.fire(entity, getter, "jb.7.1.b", field)
			ok = false
		} else {
			getterType = getter.ReturnType
		}
		ok = v.checkAccessorModifiers(entity, getter, field) && ok
	}

	setters := v.in.MethodsNamed(cls, "set"+name)
	if len(setters) == 0 {
		v.fire(entity, nil, "jb.7.1.c", field)
		ok = false
	} else {
		setter := setters[0]
		if !introspect.HasVoidReturnType(setter) || len(setter.ParameterTypes) != 1 ||
			(getterType != "" && setter.ParameterTypes[0] != getterType) {
			v.fire(entity, setter, "jb.7.1.d", field)
			ok = false
		}
		ok = v.checkAccessorModifiers(entity, setter, field) && ok
	}
	return ok
}

func (v *ejb2x) checkAccessorModifiers(entity *metadata.EntityMetaData, m *typemodel.Method, field string) bool {
	ok := true
	if !introspect.IsAbstract(m) {
		v.fire(entity, m, "10.3.1.a", field)
		ok = false
	}
	if !introspect.IsPublic(m) {
		v.fire(entity, m, "10.3.1.b", field)
		ok = false
	}
	return ok
}

// checkPrimaryKey 主键类可加载；remote 视图下必须是合法值类型；
// CMP 声明 prim-key-field 时访问器返回类型与主键类同名，否则按复合主键检查
func (v *ejb2x) checkPrimaryKey(entity *metadata.EntityMetaData, cls *typemodel.Class, rules *entityRules, vw views) bool {
	pk := v.load(entity, entity.PrimKeyClass, "22.2.g")
	if pk == nil {
		return false
	}

	ok := true
	if vw.remote && !v.in.IsRMIIDLValueType(pk) {
		v.fire(entity, nil, rules.valueType, pk.Name)
		ok = false
	}

	if entity.IsCMP() {
		if entity.PrimKeyField != "" {
			ok = v.checkPrimKeyField(entity, cls) && ok
		} else {
			ok = v.checkCompoundKey(entity, pk, "10.8.2") && ok
		}
	}
	if entity.PrimKeyField == "" {
		v.checkIdentity(entity, pk)
	}
	return ok
}

func (v *ejb2x) checkPrimKeyField(entity *metadata.EntityMetaData, cls *typemodel.Class) bool {
	ok := true
	field := entity.PrimKeyField
	if !entity.HasCMPField(field) {
		v.fire(entity, nil, "10.8.1.a", field)
		ok = false
	}
	if cls == nil {
		return ok
	}
	getter := v.noArgMethod(cls, "get"+capitalize(field))
	if getter == nil {
		v.log.Debug("primary key accessor missing, type check skipped",
			zap.String("bean", entity.EJBName()), zap.String("field", field))
		return ok
	}
	if getter.ReturnType != entity.PrimKeyClass {
		v.fire(entity, getter, "10.8.1.b", field)
		ok = false
	}
	return ok
}

// ============================================================================
// 消息驱动 Bean
// ============================================================================

// singleMethodRules "恰好一个"形态的回调方法规则，noArgs 为空时不检查参数
type singleMethodRules struct {
	required, onlyOne, public, final, static, void, noArgs, noChecked string
}

var (
	mdbEJBCreate = singleMethodRules{
		required: "15.7.3.a", onlyOne: "15.7.3.b", public: "15.7.3.c", final: "15.7.3.d",
		static: "15.7.3.e", void: "15.7.3.f", noArgs: "15.7.3.g", noChecked: "15.7.3.h",
	}
	mdbOnMessage = singleMethodRules{
		required: "15.7.4.a", onlyOne: "15.7.4.b", public: "15.7.4.c", final: "15.7.4.d",
		static: "15.7.4.e", void: "15.7.4.f", noChecked: "15.7.4.g",
	}
	mdbEJBRemove = singleMethodRules{
		required: "15.7.5.a", onlyOne: "15.7.5.b", public: "15.7.5.c", final: "15.7.5.d",
		static: "15.7.5.e", void: "15.7.5.f", noArgs: "15.7.5.g", noChecked: "15.7.5.h",
	}
)

// CheckMessageBean 消息驱动 Bean：类结构、ejbCreate、onMessage、ejbRemove
func (v *ejb2x) CheckMessageBean(mdb *metadata.MessageDrivenMetaData) bool {
	cls := v.load(mdb, mdb.EJBClass(), "22.2.b")
	if cls == nil {
		return false
	}

	ok := v.checkClassStructure(mdb, cls, messageDrivenClass)
	if !v.in.HasMessageListenerInterface(cls, mdb.MessagingType()) {
		v.fire(mdb, nil, "15.7.2.b", mdb.MessagingType())
		ok = false
	}

	ok = v.checkSingleMethod(mdb, v.in.MethodsNamed(cls, "ejbCreate"), mdbEJBCreate) && ok
	if mdb.MessagingType() == metadata.DefaultMessagingType {
		ok = v.checkSingleMethod(mdb, v.in.OnMessageMethods(cls), mdbOnMessage) && ok
	}
	ok = v.checkSingleMethod(mdb, v.in.EJBRemoveMethods(cls), mdbEJBRemove) && ok

	return v.finish(mdb, ok)
}

// checkSingleMethod 存在性与唯一性相互独立：两个方法时"必须存在"通过而"只能有一个"触发；
// 要求无参时，只有带参数的重载也视为缺失
func (v *ejb2x) checkSingleMethod(mdb *metadata.MessageDrivenMetaData, methods []*typemodel.Method,
	r singleMethodRules) bool {
	ok := true
	if len(methods) == 0 {
		v.fire(mdb, nil, r.required)
		return false
	}
	if r.noArgs != "" && !hasNoArgMethod(methods) {
		v.fire(mdb, nil, r.required)
		ok = false
	}
	if len(methods) > 1 {
		v.fire(mdb, nil, r.onlyOne)
		ok = false
	}
	for _, m := range methods {
		if !introspect.IsPublic(m) {
			v.fire(mdb, m, r.public)
			ok = false
		}
		if introspect.IsFinal(m) {
			v.fire(mdb, m, r.final)
			ok = false
		}
		if introspect.IsStatic(m) {
			v.fire(mdb, m, r.static)
			ok = false
		}
		if !introspect.HasVoidReturnType(m) {
			v.fire(mdb, m, r.void)
			ok = false
		}
		if r.noArgs != "" && len(m.ParameterTypes) != 0 {
			v.fire(mdb, m, r.noArgs)
			ok = false
		}
		if !v.in.ThrowsNoCheckedExceptions(m) {
			v.fire(mdb, m, r.noChecked)
			ok = false
		}
	}
	return ok
}

func hasNoArgMethod(methods []*typemodel.Method) bool {
	for _, m := range methods {
		if len(m.ParameterTypes) == 0 {
			return true
		}
	}
	return false
}
