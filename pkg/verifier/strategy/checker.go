package strategy

import (
	"strings"

	"go.uber.org/zap"

	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/core"
	"ejb-verifier/pkg/verifier/event"
	"ejb-verifier/pkg/verifier/introspect"
)

// ============================================================================
// 规则引擎公共部分
// ============================================================================

// checker 两个版本的规则引擎共用的状态与规则组
// 职责：类加载（缺失时触发一次违规）、事件触发、与版本无关的接口规则
// 设计原则：
//   - 每个规则组返回 bool，调用方以 ok = group() && ok 的形式累加，保证不提前退出
//   - 规则组内不做类加载以外的任何 I/O，事件按检查顺序同步触发
type checker struct {
	ctx    core.VerificationContext
	ts     *typemodel.TypeSystem
	in     *introspect.Inspector
	events *event.Factory
	log    *zap.Logger

	strictPK bool
}

// fire 触发一条违规，m 可为 nil
func (c *checker) fire(bean metadata.BeanMetaData, m *typemodel.Method, id string, info ...string) {
	c.ctx.FireSpecViolation(c.events.NewSpecViolation(bean.EJBName(), m, core.NewSection(id, info...)))
}

// verified 触发 BeanVerified
func (c *checker) verified(bean metadata.BeanMetaData) {
	c.ctx.FireBeanChecked(c.events.NewBeanVerified(bean.EJBName()))
}

// finish 汇总结果，全部通过时触发 BeanVerified
func (c *checker) finish(bean metadata.BeanMetaData, ok bool) bool {
	if ok {
		c.verified(bean)
	}
	return ok
}

// load 加载描述符中声明的类；失败时触发 section 并返回 nil，依赖该类的检查由调用方跳过
func (c *checker) load(bean metadata.BeanMetaData, name, section string) *typemodel.Class {
	cls, err := c.ts.Resolve(name)
	if err != nil {
		c.fire(bean, nil, section, name)
		c.log.Debug("class not loadable, dependent checks skipped",
			zap.String("bean", bean.EJBName()), zap.String("class", name), zap.Error(err))
		return nil
	}
	return cls
}

// peek 静默解析（不触发事件），用于依赖其它规则组负责报告的类
func (c *checker) peek(name string) *typemodel.Class {
	if name == "" {
		return nil
	}
	cls, err := c.ts.Resolve(name)
	if err != nil {
		return nil
	}
	return cls
}

// interfaceMethods iface 的 public 方法，排除 skip 接口自身声明的方法
func (c *checker) interfaceMethods(iface *typemodel.Class, skip string) []*typemodel.Method {
	var out []*typemodel.Method
	for _, m := range c.ts.Methods(iface) {
		if introspect.IsDeclaredBy(m, skip) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func sec(prefix, letter string) string {
	return prefix + "." + letter
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ============================================================================
// Bean 类结构
// ============================================================================

// classRules Bean 类结构规则的章节号
type classRules struct {
	marker         string
	implements     string
	public         string
	final          string
	abstract       string
	mustBeAbstract bool
	constructor    string
	finalizer      string
}

func (c *checker) checkClassStructure(bean metadata.BeanMetaData, cls *typemodel.Class, r classRules) bool {
	ok := true
	if c.in.Implements(cls, r.marker) != introspect.Present {
		c.fire(bean, nil, r.implements)
		ok = false
	}
	if !introspect.IsPublic(cls) {
		c.fire(bean, nil, r.public)
		ok = false
	}
	if introspect.IsFinal(cls) {
		c.fire(bean, nil, r.final)
		ok = false
	}
	if introspect.IsAbstract(cls) != r.mustBeAbstract {
		c.fire(bean, nil, r.abstract)
		ok = false
	}
	if !c.in.HasDefaultConstructor(cls) {
		c.fire(bean, nil, r.constructor)
		ok = false
	}
	if c.in.HasFinalizer(cls) {
		c.fire(bean, nil, r.finalizer)
		ok = false
	}
	return ok
}

// ============================================================================
// ejbCreate / ejbPostCreate
// ============================================================================

// createRules ejbCreate 形态规则；primaryKey 非空时要求返回主键，否则要求 void
type createRules struct {
	public, final, static, returns, args string
}

func (c *checker) checkEJBCreates(bean metadata.BeanMetaData, cls *typemodel.Class, r createRules,
	primaryKey string, checkArgs bool) bool {
	ok := true
	for _, m := range c.in.EJBCreateMethods(cls) {
		if !introspect.IsPublic(m) {
			c.fire(bean, m, r.public)
			ok = false
		}
		if introspect.IsFinal(m) {
			c.fire(bean, m, r.final)
			ok = false
		}
		if introspect.IsStatic(m) {
			c.fire(bean, m, r.static)
			ok = false
		}
		if primaryKey == "" {
			if !introspect.HasVoidReturnType(m) {
				c.fire(bean, m, r.returns)
				ok = false
			}
		} else if !c.in.HasPrimaryKeyReturnType(primaryKey, m) {
			c.fire(bean, m, r.returns)
			ok = false
		}
		if checkArgs && !c.in.HasLegalRMIIIOPArguments(m) {
			c.fire(bean, m, r.args)
			ok = false
		}
	}
	return ok
}

// checkEJBPostCreates 章节字母：a 对应 ejbCreate 的 ejbPostCreate 存在，b public，c 非 static，d 非 final，e void
func (c *checker) checkEJBPostCreates(bean metadata.BeanMetaData, cls *typemodel.Class, prefix string) bool {
	ok := true
	for _, create := range c.in.EJBCreateMethods(cls) {
		if c.in.MatchingEJBPostCreateFor(cls, create) == nil {
			c.fire(bean, create, sec(prefix, "a"))
			ok = false
		}
	}
	for _, m := range c.in.EJBPostCreateMethods(cls) {
		if !introspect.IsPublic(m) {
			c.fire(bean, m, sec(prefix, "b"))
			ok = false
		}
		if introspect.IsStatic(m) {
			c.fire(bean, m, sec(prefix, "c"))
			ok = false
		}
		if introspect.IsFinal(m) {
			c.fire(bean, m, sec(prefix, "d"))
			ok = false
		}
		if !introspect.HasVoidReturnType(m) {
			c.fire(bean, m, sec(prefix, "e"))
			ok = false
		}
	}
	return ok
}

// ============================================================================
// 组件接口（remote / local）
// ============================================================================

// checkRemoteComponent remote 接口规则，章节字母：
// a 继承 EJBObject，b 参数，c 返回值，d RemoteException，e Bean 对应方法，f 返回类型一致，g 异常覆盖，h 不以 ejb 开头，
// i 受检异常是合规的 RMI/IIOP 异常类型
// cls 为 nil 时跳过与 Bean 类比对的规则
func (c *checker) checkRemoteComponent(bean metadata.BeanMetaData, remote, cls *typemodel.Class, prefix string) bool {
	ok := true
	if !c.in.HasEJBObjectInterface(remote) {
		c.fire(bean, nil, sec(prefix, "a"))
		ok = false
	}
	for _, m := range c.interfaceMethods(remote, introspect.EJBObjectClass) {
		if !c.in.HasLegalRMIIIOPArguments(m) {
			c.fire(bean, m, sec(prefix, "b"))
			ok = false
		}
		if !c.in.HasLegalRMIIIOPReturnType(m) {
			c.fire(bean, m, sec(prefix, "c"))
			ok = false
		}
		if !c.in.ThrowsRemoteException(m) {
			c.fire(bean, m, sec(prefix, "d"))
			ok = false
		}
		if !c.in.HasLegalRMIIIOPExceptionTypes(m) {
			c.fire(bean, m, sec(prefix, "i"))
			ok = false
		}
		ok = c.checkBusinessMethod(bean, m, cls, sec(prefix, "e"), sec(prefix, "f"), sec(prefix, "g")) && ok
		if strings.HasPrefix(m.Name, "ejb") {
			c.fire(bean, m, sec(prefix, "h"))
			ok = false
		}
	}
	return ok
}

// checkLocalComponent local 接口规则，章节字母：
// a 继承 EJBLocalObject，b 不得抛 RemoteException，c Bean 对应方法，d 返回类型一致，e 异常覆盖，f 不以 ejb 开头
func (c *checker) checkLocalComponent(bean metadata.BeanMetaData, local, cls *typemodel.Class, prefix string) bool {
	ok := true
	if !c.in.HasLocalObjectInterface(local) {
		c.fire(bean, nil, sec(prefix, "a"))
		ok = false
	}
	for _, m := range c.interfaceMethods(local, introspect.EJBLocalObjectClass) {
		if c.in.DeclaresRemoteException(m) {
			c.fire(bean, m, sec(prefix, "b"))
			ok = false
		}
		ok = c.checkBusinessMethod(bean, m, cls, sec(prefix, "c"), sec(prefix, "d"), sec(prefix, "e")) && ok
		if strings.HasPrefix(m.Name, "ejb") {
			c.fire(bean, m, sec(prefix, "f"))
			ok = false
		}
	}
	return ok
}

func (c *checker) checkBusinessMethod(bean metadata.BeanMetaData, m *typemodel.Method, cls *typemodel.Class,
	matching, returnType, exceptions string) bool {
	if cls == nil {
		return true
	}
	impl := c.in.MatchingMethod(cls, m)
	if impl == nil {
		c.fire(bean, m, matching)
		return false
	}
	ok := true
	if !introspect.HasMatchingReturnType(m, impl) {
		c.fire(bean, m, returnType)
		ok = false
	}
	if !c.in.HasMatchingExceptions(impl, m) {
		c.fire(bean, m, exceptions)
		ok = false
	}
	return ok
}

// ============================================================================
// 会话 Bean home / local home
// ============================================================================

// sessionHomeRules 会话 Bean home 接口规则，未使用的规则留空
type sessionHomeRules struct {
	local  bool
	marker string

	extends        string
	args           string
	returns        string
	throwsRemote   string
	exceptionTypes string
	noRemote       string
	onlyCreate     string

	atLeastOneCreate string
	createMatch      string
	createReturn     string
	createExceptions string
	createException  string

	defaultCreate       string
	defaultCreateReturn string
	otherCreates        string
}

// checkSessionHome component 为 remote/local 接口名，无法解析时跳过返回类型检查
func (c *checker) checkSessionHome(s *metadata.SessionMetaData, home, cls *typemodel.Class, component string,
	r *sessionHomeRules) bool {
	ok := true
	if c.in.Implements(home, r.marker) != introspect.Present {
		c.fire(s, nil, r.extends)
		ok = false
	}
	for _, m := range c.interfaceMethods(home, r.marker) {
		ok = c.checkHomeMethodShape(s, m, r.local, homeShape{r.args, r.returns, r.throwsRemote, r.exceptionTypes, r.noRemote}) && ok
		if r.onlyCreate != "" && !introspect.IsCreateMethod(m) {
			c.fire(s, m, r.onlyCreate)
			ok = false
		}
	}

	componentCls := c.peek(component)
	creates := c.in.CreateMethods(home)
	if len(creates) == 0 {
		c.fire(s, nil, r.atLeastOneCreate)
		ok = false
	}
	for _, create := range creates {
		if cls != nil {
			if ejbCreate := c.in.MatchingEJBCreate(cls, create); ejbCreate == nil {
				c.fire(s, create, r.createMatch)
				ok = false
			} else if !c.in.HasMatchingExceptions(ejbCreate, create) {
				c.fire(s, create, r.createExceptions)
				ok = false
			}
		}
		if componentCls != nil && !c.in.HasReturnTypeAssignableFrom(create, componentCls.Name) {
			c.fire(s, create, r.createReturn)
			ok = false
		}
		if !c.in.ThrowsCreateException(create) {
			c.fire(s, create, r.createException)
			ok = false
		}
	}

	if s.IsStateless() {
		ok = c.checkStatelessHome(s, home, componentCls, r) && ok
	}
	return ok
}

func (c *checker) checkStatelessHome(s *metadata.SessionMetaData, home, componentCls *typemodel.Class,
	r *sessionHomeRules) bool {
	ok := true
	if !c.in.HasDefaultCreateMethod(home) {
		c.fire(s, nil, r.defaultCreate)
		ok = false
	} else if r.defaultCreateReturn != "" && componentCls != nil {
		if create := c.noArgMethod(home, "create"); create != nil &&
			!c.in.HasReturnTypeAssignableFrom(create, componentCls.Name) {
			c.fire(s, create, r.defaultCreateReturn)
			ok = false
		}
	}
	if c.in.HasMoreThanOneCreateMethod(home) {
		c.fire(s, nil, r.otherCreates)
		ok = false
	}
	return ok
}

// homeShape home 方法形状规则的章节号
type homeShape struct {
	args           string
	returns        string
	throwsRemote   string
	exceptionTypes string
	noRemote       string
}

// checkHomeMethodShape remote home 检查参数、返回值、RemoteException 与异常类型；local home 检查不得抛 RemoteException
func (c *checker) checkHomeMethodShape(bean metadata.BeanMetaData, m *typemodel.Method, local bool, r homeShape) bool {
	ok := true
	if local {
		if c.in.DeclaresRemoteException(m) {
			c.fire(bean, m, r.noRemote)
			ok = false
		}
		return ok
	}
	if !c.in.HasLegalRMIIIOPArguments(m) {
		c.fire(bean, m, r.args)
		ok = false
	}
	if !c.in.HasLegalRMIIIOPReturnType(m) {
		c.fire(bean, m, r.returns)
		ok = false
	}
	if !c.in.ThrowsRemoteException(m) {
		c.fire(bean, m, r.throwsRemote)
		ok = false
	}
	if !c.in.HasLegalRMIIIOPExceptionTypes(m) {
		c.fire(bean, m, r.exceptionTypes)
		ok = false
	}
	return ok
}

// ============================================================================
// 实体 Bean home / local home
// ============================================================================

// entityHomeRules 实体 Bean home 接口规则，未使用的规则留空
type entityHomeRules struct {
	local  bool
	marker string

	extends        string
	args           string
	returns        string
	throwsRemote   string
	exceptionTypes string
	noRemote       string
	onlyCreateFind string

	createMatch      string
	postCreateMatch  string
	createReturn     string
	createExceptions string
	createException  string

	findByPrimaryKey string
	finderReturn     string
	finderException  string
	finderMatch      string
	finderExceptions string

	homeMatch  string
	homeReturn string
}

// remoteEntityHome 2.x remote home 章节表（10.6.10 / 12.2.9）
func remoteEntityHome(prefix string) *entityHomeRules {
	return &entityHomeRules{
		marker:           introspect.EJBHomeClass,
		extends:          sec(prefix, "a"),
		args:             sec(prefix, "b"),
		returns:          sec(prefix, "c"),
		throwsRemote:     sec(prefix, "d"),
		createMatch:      sec(prefix, "e"),
		postCreateMatch:  sec(prefix, "f"),
		createReturn:     sec(prefix, "g"),
		createExceptions: sec(prefix, "h"),
		createException:  sec(prefix, "i"),
		findByPrimaryKey: sec(prefix, "j"),
		finderReturn:     sec(prefix, "k"),
		finderException:  sec(prefix, "l"),
		finderMatch:      sec(prefix, "m"),
		finderExceptions: sec(prefix, "n"),
		homeMatch:        sec(prefix, "o"),
		homeReturn:       sec(prefix, "p"),
		exceptionTypes:   sec(prefix, "q"),
	}
}

// localEntityHome 2.x local home 章节表（10.6.12 / 12.2.11）
func localEntityHome(prefix string) *entityHomeRules {
	return &entityHomeRules{
		local:            true,
		marker:           introspect.EJBLocalHomeClass,
		extends:          sec(prefix, "a"),
		noRemote:         sec(prefix, "b"),
		createMatch:      sec(prefix, "c"),
		postCreateMatch:  sec(prefix, "d"),
		createReturn:     sec(prefix, "e"),
		createExceptions: sec(prefix, "f"),
		createException:  sec(prefix, "g"),
		findByPrimaryKey: sec(prefix, "h"),
		finderReturn:     sec(prefix, "i"),
		finderException:  sec(prefix, "j"),
		finderMatch:      sec(prefix, "k"),
		homeMatch:        sec(prefix, "l"),
		homeReturn:       sec(prefix, "m"),
	}
}

// finderMode 查找器与 Bean 的匹配方式
type finderMode int

const (
	finderNone   finderMode = iota // CMP 1.x：容器实现，不检查
	finderEJB                      // BMP：ejbFind<METHOD>
	finderQuery                    // CMP 2.x：<query> 元素
)

func modeOf(entity *metadata.EntityMetaData) finderMode {
	switch {
	case entity.IsBMP():
		return finderEJB
	case entity.IsCMP2x():
		return finderQuery
	default:
		return finderNone
	}
}

func (c *checker) checkEntityHome(entity *metadata.EntityMetaData, home, cls *typemodel.Class, component string,
	r *entityHomeRules) bool {
	ok := true
	if c.in.Implements(home, r.marker) != introspect.Present {
		c.fire(entity, nil, r.extends)
		ok = false
	}

	var homeMethods []*typemodel.Method
	for _, m := range c.interfaceMethods(home, r.marker) {
		ok = c.checkHomeMethodShape(entity, m, r.local, homeShape{r.args, r.returns, r.throwsRemote, r.exceptionTypes, r.noRemote}) && ok
		if introspect.IsCreateMethod(m) || introspect.IsFinder(m) {
			continue
		}
		if r.onlyCreateFind != "" {
			c.fire(entity, m, r.onlyCreateFind)
			ok = false
		}
		homeMethods = append(homeMethods, m)
	}

	componentCls := c.peek(component)
	ok = c.checkEntityCreates(entity, home, cls, componentCls, r) && ok
	ok = c.checkEntityFinders(entity, home, cls, componentCls, r) && ok
	if r.homeMatch != "" && cls != nil {
		ok = c.checkEntityHomeMethods(entity, homeMethods, cls, r) && ok
	}
	return ok
}

func (c *checker) checkEntityCreates(entity *metadata.EntityMetaData, home, cls, componentCls *typemodel.Class,
	r *entityHomeRules) bool {
	ok := true
	for _, create := range c.in.CreateMethods(home) {
		if cls != nil {
			ejbCreate := c.in.MatchingEJBCreate(cls, create)
			if ejbCreate == nil {
				c.fire(entity, create, r.createMatch)
				ok = false
			}
			ejbPostCreate := c.in.MatchingEJBPostCreate(cls, create)
			if ejbPostCreate == nil {
				c.fire(entity, create, r.postCreateMatch)
				ok = false
			}
			covered := true
			if ejbCreate != nil && !c.in.HasMatchingExceptions(ejbCreate, create) {
				covered = false
			}
			if ejbPostCreate != nil && !c.in.HasMatchingExceptions(ejbPostCreate, create) {
				covered = false
			}
			if !covered {
				c.fire(entity, create, r.createExceptions)
				ok = false
			}
		}
		if componentCls != nil && !c.in.HasReturnTypeAssignableFrom(create, componentCls.Name) {
			c.fire(entity, create, r.createReturn)
			ok = false
		}
		if !c.in.ThrowsCreateException(create) {
			c.fire(entity, create, r.createException)
			ok = false
		}
	}
	return ok
}

func (c *checker) checkEntityFinders(entity *metadata.EntityMetaData, home, cls, componentCls *typemodel.Class,
	r *entityHomeRules) bool {
	ok := true
	finders := c.in.FinderMethods(home)

	hasByPrimaryKey := false
	for _, m := range finders {
		if m.Name == "findByPrimaryKey" {
			hasByPrimaryKey = true
		}
	}
	if !hasByPrimaryKey {
		c.fire(entity, nil, r.findByPrimaryKey)
		ok = false
	}

	mode := modeOf(entity)
	for _, finder := range finders {
		if componentCls != nil &&
			!c.in.HasReturnTypeAssignableFrom(finder, componentCls.Name) &&
			!c.in.IsSingleObjectFinder(entity.PrimKeyClass, finder) &&
			!c.in.IsMultiObjectFinder(finder) {
			c.fire(entity, finder, r.finderReturn)
			ok = false
		}
		if !c.in.ThrowsFinderException(finder) {
			c.fire(entity, finder, r.finderException)
			ok = false
		}

		switch mode {
		case finderEJB:
			if cls == nil {
				continue
			}
			ejbFind := c.in.MatchingEJBFind(cls, finder)
			if ejbFind == nil {
				c.fire(entity, finder, r.finderMatch)
				ok = false
			} else if r.finderExceptions != "" && !c.in.HasMatchingExceptions(ejbFind, finder) {
				c.fire(entity, finder, r.finderExceptions)
				ok = false
			}
		case finderQuery:
			if finder.Name == "findByPrimaryKey" || finder.Name == "findAll" {
				continue
			}
			if !hasQuery(entity, finder) {
				c.fire(entity, finder, r.finderMatch)
				ok = false
			}
		}
	}
	return ok
}

func hasQuery(entity *metadata.EntityMetaData, finder *typemodel.Method) bool {
	for i := range entity.Queries {
		if entity.Queries[i].Matches(finder.Name, finder.ParameterTypes) {
			return true
		}
	}
	return false
}

func (c *checker) checkEntityHomeMethods(entity *metadata.EntityMetaData, methods []*typemodel.Method,
	cls *typemodel.Class, r *entityHomeRules) bool {
	ok := true
	for _, m := range methods {
		ejbHome := c.in.MatchingEJBHome(cls, m)
		if ejbHome == nil {
			c.fire(entity, m, r.homeMatch)
			ok = false
			continue
		}
		if !introspect.HasMatchingReturnType(m, ejbHome) {
			c.fire(entity, m, r.homeReturn)
			ok = false
		}
	}
	return ok
}

// ============================================================================
// 主键
// ============================================================================

// checkIdentity 主键类是否覆盖 equals/hashCode；缺失时记录 warn，返回是否提供
func (c *checker) checkIdentity(entity *metadata.EntityMetaData, pk *typemodel.Class) bool {
	if pk.Name == typemodel.ObjectClass || c.in.HasIdentityMethods(pk) {
		return true
	}
	c.log.Warn("primary key class does not override equals and hashCode",
		zap.String("bean", entity.EJBName()), zap.String("class", pk.Name))
	return false
}

// checkCompoundKey 复合主键规则，章节字母：a public，b 字段全部 public，c 字段都是 cmp-field
func (c *checker) checkCompoundKey(entity *metadata.EntityMetaData, pk *typemodel.Class, prefix string) bool {
	if pk.Name == typemodel.ObjectClass {
		return true
	}
	ok := true
	if !introspect.IsPublic(pk) {
		c.fire(entity, nil, sec(prefix, "a"), pk.Name)
		ok = false
	}
	if !c.in.IsAllFieldsPublic(pk) {
		c.fire(entity, nil, sec(prefix, "b"), pk.Name)
		ok = false
	}
	if c.in.HasANonStaticField(pk) {
		for _, f := range c.in.InstanceFields(pk) {
			if !entity.HasCMPField(f.Name) {
				c.fire(entity, nil, sec(prefix, "c"), f.Name)
				ok = false
			}
		}
	}
	return ok
}

// noArgMethod Bean 类链上名为 name 的无参方法
func (c *checker) noArgMethod(cls *typemodel.Class, name string) *typemodel.Method {
	for _, m := range c.in.MethodsNamed(cls, name) {
		if len(m.ParameterTypes) == 0 {
			return m
		}
	}
	return nil
}

// checkEJBFinds BMP 查找器实现，章节字母：
// a 必须有 ejbFindByPrimaryKey，b public，c 非 final，d 非 static，e 参数（仅 checkArgs），f 返回主键或集合
func (c *checker) checkEJBFinds(entity *metadata.EntityMetaData, cls *typemodel.Class, prefix string, checkArgs bool) bool {
	ok := true
	finds := c.in.EJBFindMethods(cls)

	hasByPrimaryKey := false
	for _, m := range finds {
		if m.Name == "ejbFindByPrimaryKey" {
			hasByPrimaryKey = true
		}
	}
	if !hasByPrimaryKey {
		c.fire(entity, nil, sec(prefix, "a"))
		ok = false
	}

	for _, m := range finds {
		if !introspect.IsPublic(m) {
			c.fire(entity, m, sec(prefix, "b"))
			ok = false
		}
		if introspect.IsFinal(m) {
			c.fire(entity, m, sec(prefix, "c"))
			ok = false
		}
		if introspect.IsStatic(m) {
			c.fire(entity, m, sec(prefix, "d"))
			ok = false
		}
		if checkArgs && !c.in.HasLegalRMIIIOPArguments(m) {
			c.fire(entity, m, sec(prefix, "e"))
			ok = false
		}
		if !c.in.IsSingleObjectFinder(entity.PrimKeyClass, m) && !c.in.IsMultiObjectFinder(m) {
			c.fire(entity, m, sec(prefix, "f"))
			ok = false
		}
	}
	return ok
}
