package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/typemodel/platform"
	"ejb-verifier/pkg/typemodel/symtab"
)

const fixture = `
classes:
  - name: com.acme.Account
    kind: interface
    interfaces: [javax.ejb.EJBObject]
    methods:
      - {name: getBalance, returns: double, throws: [java.rmi.RemoteException]}
      - {name: deposit, params: [double], throws: [java.io.IOException, com.acme.LimitException]}
  - name: com.acme.AccountHome
    kind: interface
    interfaces: [javax.ejb.EJBHome]
    methods:
      - {name: create, params: [java.lang.String], returns: com.acme.Account, throws: [javax.ejb.CreateException, java.rmi.RemoteException]}
      - {name: createWithBalance, params: [java.lang.String, double], returns: com.acme.Account, throws: [java.lang.Exception]}
      - {name: findByPrimaryKey, params: [com.acme.AccountPK], returns: com.acme.Account, throws: [javax.ejb.FinderException, java.rmi.RemoteException]}
      - {name: findAll, returns: java.util.Collection, throws: [javax.ejb.FinderException, java.rmi.RemoteException]}
      - {name: findLegacy, returns: java.util.Enumeration, throws: [javax.ejb.FinderException, java.rmi.RemoteException]}
      - {name: findBroken, returns: java.lang.String, throws: [java.rmi.RemoteException]}
  - name: com.acme.AccountBase
    modifiers: [public, abstract]
    fields:
      - {name: id, type: java.lang.String, modifiers: [public]}
      - {name: COUNT, type: int, modifiers: [private, static]}
    methods:
      - {name: finalize, modifiers: [protected]}
  - name: com.acme.AccountBean
    super: com.acme.AccountBase
    interfaces: [javax.ejb.EntityBean]
    fields:
      - {name: balance, type: double, modifiers: [private]}
    methods:
      - {name: ejbCreate, params: [java.lang.String], returns: com.acme.AccountPK, throws: [javax.ejb.CreateException]}
      - {name: ejbPostCreate, params: [java.lang.String]}
      - {name: ejbCreateWithBalance, params: [java.lang.String, double], returns: com.acme.AccountPK, modifiers: [protected]}
      - {name: ejbFindByPrimaryKey, params: [com.acme.AccountPK], returns: com.acme.AccountPK}
      - {name: ejbHomeCount, returns: int}
      - {name: ejbSelectNames, returns: java.util.Collection, modifiers: [public, abstract]}
      - {name: getBalance, returns: double}
  - name: com.acme.AccountPK
    interfaces: [java.io.Serializable]
    fields:
      - {name: id, type: java.lang.String, modifiers: [public]}
    methods:
      - {name: equals, params: [java.lang.Object], returns: boolean}
      - {name: hashCode, returns: int}
  - name: com.acme.HalfPK
    fields:
      - {name: id, type: java.lang.String, modifiers: [private]}
    methods:
      - {name: hashCode, returns: int}
  - name: com.acme.LimitException
    super: java.lang.Exception
  - name: com.acme.RemoteLeak
    super: java.lang.Exception
    interfaces: [java.rmi.Remote]
  - name: com.acme.Outer
    interfaces: [java.rmi.Remote]
  - name: com.acme.Outer$Inner
    declaring: com.acme.Outer
  - name: com.acme.Outer$Nested
    declaring: com.acme.Outer
    modifiers: [public, static]
  - name: com.acme.BadRemote
    kind: interface
    interfaces: [java.rmi.Remote]
    methods:
      - {name: call}
  - name: com.acme.ConstRemote
    kind: interface
    interfaces: [java.rmi.Remote]
    fields:
      - {name: LIMIT, type: java.util.Date}
  - name: com.acme.Listener
    interfaces: [javax.ejb.MessageDrivenBean, javax.jms.MessageListener]
    methods:
      - {name: onMessage, params: [javax.jms.Message]}
      - {name: ejbCreate}
  - name: com.acme.Dangling
    interfaces: [com.acme.Missing]
`

func newInspector(t *testing.T) (*Inspector, *observer.ObservedLogs) {
	t.Helper()
	app, err := symtab.ParseBytes([]byte(fixture))
	require.NoError(t, err)
	core, logs := observer.New(zapcore.WarnLevel)
	ts := typemodel.NewTypeSystem(typemodel.Chain(platform.Loader(), app))
	return New(ts, zap.New(core)), logs
}

func class(t *testing.T, in *Inspector, name string) *typemodel.Class {
	t.Helper()
	c, err := in.TypeSystem().Resolve(name)
	require.NoError(t, err)
	return c
}

func method(t *testing.T, c *typemodel.Class, name string, params ...string) *typemodel.Method {
	t.Helper()
	m, ok := c.DeclaredMethod(name, params...)
	require.True(t, ok, "%s.%s", c.Name, name)
	return m
}

func names(methods []*typemodel.Method) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, m.Name)
	}
	return out
}

func TestNaming(t *testing.T) {
	cases := []struct {
		name string
		pred func(*typemodel.Method) bool
		want bool
	}{
		{"create", IsCreateMethod, true},
		{"createFoo", IsCreateMethod, true},
		{"ejbCreate", IsCreateMethod, false},
		{"ejbCreateFoo", IsEJBCreate, true},
		{"ejbPostCreate", IsEJBPostCreate, true},
		{"ejbRemove", IsEJBRemove, true},
		{"ejbRemoveAll", IsEJBRemove, false},
		{"ejbSelectX", IsEJBSelect, true},
		{"ejbHomeCount", IsEJBHome, true},
		{"findAll", IsFinder, true},
		{"ejbFindAll", IsEJBFind, true},
		{"ejbFindAll", IsFinder, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.pred(&typemodel.Method{Name: tc.name}), tc.name)
	}
}

func TestModifiers(t *testing.T) {
	in, _ := newInspector(t)
	base := class(t, in, "com.acme.AccountBase")
	assert.True(t, IsPublic(base))
	assert.True(t, IsAbstract(base))
	assert.False(t, IsFinal(base))

	finalize := method(t, base, "finalize")
	assert.False(t, IsPublic(finalize))
	assert.False(t, IsStatic(finalize))
}

func TestImplements(t *testing.T) {
	in, logs := newInspector(t)

	assert.Equal(t, Present, in.Implements(class(t, in, "com.acme.AccountBean"), EntityBeanClass))
	assert.Equal(t, Absent, in.Implements(class(t, in, "com.acme.AccountBean"), SessionBeanClass))
	assert.Equal(t, Absent, in.Implements(nil, SessionBeanClass))

	t.Run("无法解析的接口", func(t *testing.T) {
		assert.Equal(t, Unresolvable, in.Implements(class(t, in, "com.acme.Dangling"), "com.acme.Missing"))
		assert.Equal(t, 1, logs.FilterMessage("interface not resolvable, treating as absent").Len())
		assert.Equal(t, "unresolvable", Unresolvable.String())
	})

	t.Run("命名谓词", func(t *testing.T) {
		account := class(t, in, "com.acme.Account")
		assert.True(t, in.HasRemoteInterface(account))
		assert.True(t, in.HasEJBObjectInterface(account))
		assert.False(t, in.HasLocalObjectInterface(account))
		assert.True(t, in.HasHomeInterface(class(t, in, "com.acme.AccountHome")))
		assert.False(t, in.HasLocalHomeInterface(class(t, in, "com.acme.AccountHome")))

		listener := class(t, in, "com.acme.Listener")
		assert.True(t, in.HasMessageDrivenBeanInterface(listener))
		assert.True(t, in.HasMessageListenerInterface(listener, "javax.jms.MessageListener"))
		assert.False(t, in.HasSessionBeanInterface(listener))
		assert.False(t, in.HasSessionSynchronizationInterface(listener))
		assert.True(t, in.HasEntityBeanInterface(class(t, in, "com.acme.AccountBean")))
	})
}

func TestCollectors(t *testing.T) {
	in, _ := newInspector(t)
	home := class(t, in, "com.acme.AccountHome")
	bean := class(t, in, "com.acme.AccountBean")

	assert.Equal(t, []string{"create", "createWithBalance"}, names(in.CreateMethods(home)))
	assert.Equal(t, []string{"findByPrimaryKey", "findAll", "findLegacy", "findBroken"}, names(in.FinderMethods(home)))
	assert.False(t, in.HasDefaultCreateMethod(home))
	assert.True(t, in.HasMoreThanOneCreateMethod(home))

	assert.Equal(t, []string{"ejbCreate", "ejbCreateWithBalance"}, names(in.EJBCreateMethods(bean)))
	assert.Equal(t, []string{"ejbPostCreate"}, names(in.EJBPostCreateMethods(bean)))
	assert.Equal(t, []string{"ejbFindByPrimaryKey"}, names(in.EJBFindMethods(bean)))
	assert.Equal(t, []string{"ejbHomeCount"}, names(in.EJBHomeMethods(bean)))
	assert.Equal(t, []string{"ejbSelectNames"}, names(in.EJBSelectMethods(bean)))
	// ejbRemove 来自 EntityBean 接口
	assert.Len(t, in.MethodsNamed(bean, "ejbRemove"), 1)
	assert.Len(t, in.EJBRemoveMethods(bean), 1)

	t.Run("对应方法", func(t *testing.T) {
		create := method(t, home, "create", "java.lang.String")
		withBalance := method(t, home, "createWithBalance", "java.lang.String", "double")

		assert.Equal(t, "ejbCreate", in.MatchingEJBCreate(bean, create).Name)
		assert.Equal(t, "ejbCreateWithBalance", in.MatchingEJBCreate(bean, withBalance).Name)
		assert.Equal(t, "ejbPostCreate", in.MatchingEJBPostCreate(bean, create).Name)
		assert.Nil(t, in.MatchingEJBPostCreate(bean, withBalance))

		ejbCreate := method(t, bean, "ejbCreate", "java.lang.String")
		assert.NotNil(t, in.MatchingEJBPostCreateFor(bean, ejbCreate))

		byPK := method(t, home, "findByPrimaryKey", "com.acme.AccountPK")
		assert.NotNil(t, in.MatchingEJBFind(bean, byPK))
		assert.Nil(t, in.MatchingEJBFind(bean, method(t, home, "findAll")))

		assert.NotNil(t, in.MatchingEJBHome(bean, &typemodel.Method{Name: "count"}))
	})

	t.Run("业务方法匹配", func(t *testing.T) {
		remote := class(t, in, "com.acme.Account")
		getBalance := method(t, remote, "getBalance")
		deposit := method(t, remote, "deposit", "double")

		assert.True(t, in.HasMatchingMethod(bean, getBalance))
		assert.False(t, in.HasMatchingMethod(bean, deposit))
		assert.True(t, HasMatchingReturnType(getBalance, in.MatchingMethod(bean, getBalance)))
	})

	t.Run("onMessage", func(t *testing.T) {
		listener := class(t, in, "com.acme.Listener")
		assert.Len(t, in.OnMessageMethods(listener), 1)
		assert.False(t, in.IsOnMessage(&typemodel.Method{Name: "onMessage", ParameterTypes: []string{"java.lang.String"}}))
		assert.True(t, in.IsOnMessage(&typemodel.Method{Name: "onMessage", ParameterTypes: []string{"javax.jms.TextMessage"}}))
	})
}

func TestClassStructure(t *testing.T) {
	in, _ := newInspector(t)
	bean := class(t, in, "com.acme.AccountBean")
	pk := class(t, in, "com.acme.AccountPK")
	half := class(t, in, "com.acme.HalfPK")

	assert.True(t, in.HasDefaultConstructor(bean))
	assert.True(t, in.HasFinalizer(bean))
	assert.False(t, in.HasFinalizer(pk))

	assert.True(t, in.HasANonStaticField(bean))
	assert.False(t, in.IsAllFieldsPublic(bean))
	assert.True(t, in.IsAllFieldsPublic(pk))
	assert.False(t, in.IsAllFieldsPublic(half))
	assert.Len(t, in.InstanceFields(bean), 2)
	assert.NotNil(t, in.FieldNamed(bean, "id"))
	assert.Nil(t, in.FieldNamed(bean, "nope"))

	assert.True(t, in.HasIdentityMethods(pk))
	assert.False(t, in.HasIdentityMethods(half))
	assert.False(t, in.HasIdentityMethods(bean))
}

func TestReturnAndExceptionClassifiers(t *testing.T) {
	in, _ := newInspector(t)
	home := class(t, in, "com.acme.AccountHome")
	create := method(t, home, "create", "java.lang.String")
	withBalance := method(t, home, "createWithBalance", "java.lang.String", "double")
	byPK := method(t, home, "findByPrimaryKey", "com.acme.AccountPK")
	findAll := method(t, home, "findAll")
	findLegacy := method(t, home, "findLegacy")
	findBroken := method(t, home, "findBroken")

	t.Run("返回类型", func(t *testing.T) {
		assert.True(t, in.HasRemoteReturnType("com.acme.Account", create))
		assert.False(t, in.HasRemoteReturnType("com.acme.Account", findAll))
		assert.False(t, in.HasLocalReturnType("", create))
		assert.True(t, in.IsMultiObjectFinder(findAll))
		assert.True(t, in.IsMultiObjectFinder(findLegacy))
		assert.False(t, in.IsMultiObjectFinder(findBroken))
		assert.False(t, in.IsSingleObjectFinder("com.acme.AccountPK", byPK))
		assert.True(t, in.IsSingleObjectFinder("com.acme.AccountPK",
			&typemodel.Method{Name: "findX", ReturnType: "java.lang.Object"}))
		assert.True(t, HasVoidReturnType(&typemodel.Method{ReturnType: typemodel.Void}))
	})

	t.Run("异常", func(t *testing.T) {
		assert.True(t, in.ThrowsCreateException(create))
		assert.True(t, in.ThrowsCreateException(withBalance))
		assert.False(t, in.ThrowsCreateException(findAll))
		assert.True(t, in.ThrowsFinderException(findAll))
		assert.False(t, in.ThrowsFinderException(findBroken))

		assert.True(t, in.ThrowsRemoteException(create))
		assert.True(t, in.ThrowsRemoteException(withBalance))
		assert.False(t, in.DeclaresRemoteException(withBalance))
		assert.True(t, in.DeclaresRemoteException(create))

		noThrows := &typemodel.Method{Name: "x"}
		assert.False(t, in.ThrowsRemoteException(noThrows))
		assert.True(t, in.ThrowsNoCheckedExceptions(noThrows))
		assert.True(t, in.ThrowsNoCheckedExceptions(&typemodel.Method{ExceptionTypes: []string{"javax.ejb.EJBException"}}))
		assert.False(t, in.ThrowsNoCheckedExceptions(create))
		assert.False(t, in.ThrowsNoCheckedExceptions(&typemodel.Method{ExceptionTypes: []string{"com.acme.Nope"}}))
	})

	t.Run("RemoteException 的方向", func(t *testing.T) {
		cases := []struct {
			name   string
			throws []string
			want   bool
		}{
			{"RemoteException", []string{"java.rmi.RemoteException"}, true},
			{"父类型 Throwable", []string{"java.lang.Throwable"}, true},
			{"IOException", []string{"java.io.IOException"}, true},
			{"Exception", []string{"java.lang.Exception"}, true},
			{"只有子类 ServerException", []string{"java.rmi.ServerException"}, false},
			{"无关的受检异常", []string{"javax.ejb.CreateException"}, false},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				m := &typemodel.Method{Name: "ping", ExceptionTypes: tc.throws}
				assert.Equal(t, tc.want, in.ThrowsRemoteException(m))
			})
		}
	})

	t.Run("异常覆盖", func(t *testing.T) {
		target := &typemodel.Method{ExceptionTypes: []string{"java.lang.Exception"}}
		assert.True(t, in.HasMatchingExceptions(create, target))
		assert.False(t, in.HasMatchingExceptions(withBalance, create))
		assert.True(t, in.HasMatchingExceptions(&typemodel.Method{ExceptionTypes: []string{"com.acme.Unknown"}}, create))
		assert.True(t, in.HasMatchingExceptions(&typemodel.Method{}, &typemodel.Method{}))
		assert.True(t, in.HasMatchingExceptions(
			&typemodel.Method{ExceptionTypes: []string{"javax.ejb.EJBException", "java.lang.OutOfMemoryError"}},
			&typemodel.Method{}))
	})

	t.Run("声明者", func(t *testing.T) {
		assert.True(t, IsDeclaredBy(create, "com.acme.AccountHome"))
		assert.False(t, IsDeclaredBy(create, EJBHomeClass, EJBObjectClass))
	})
}

func TestRMIIIOP(t *testing.T) {
	in, logs := newInspector(t)

	cases := []struct {
		name string
		want bool
	}{
		{"int", true},
		{"void", true},
		{"java.lang.String", true},
		{"java.lang.String[]", true},
		{"com.acme.Account", true},
		{"com.acme.AccountPK", true},
		{"com.acme.LimitException", true},
		{"org.omg.CORBA.Object", true},
		{"com.acme.Outer", false},
		{"com.acme.Outer[]", false},
		{"com.acme.Outer$Inner", false},
		{"com.acme.Outer$Nested", true},
		{"com.acme.BadRemote", false},
		{"com.acme.ConstRemote", false},
		{"com.acme.RemoteLeak", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, in.IsRMIIIOPType(tc.name))
		})
	}

	t.Run("无法解析按值类型处理", func(t *testing.T) {
		assert.True(t, in.IsRMIIIOPType("com.acme.Ghost"))
		assert.Equal(t, 1, logs.FilterMessage("type not resolvable, treating as RMI/IIOP value type").Len())
	})

	t.Run("方法级检查", func(t *testing.T) {
		m := &typemodel.Method{
			Name:           "transfer",
			ParameterTypes: []string{"com.acme.Account", "double"},
			ReturnType:     "com.acme.AccountPK",
			ExceptionTypes: []string{"java.rmi.RemoteException", "com.acme.LimitException", "java.lang.IllegalStateException"},
		}
		assert.True(t, in.HasLegalRMIIIOPArguments(m))
		assert.True(t, in.HasLegalRMIIIOPReturnType(m))
		assert.True(t, in.HasLegalRMIIIOPExceptionTypes(m))

		bad := &typemodel.Method{
			ParameterTypes: []string{"com.acme.Outer"},
			ReturnType:     "com.acme.Outer$Inner",
			ExceptionTypes: []string{"com.acme.RemoteLeak"},
		}
		assert.False(t, in.HasLegalRMIIIOPArguments(bad))
		assert.False(t, in.HasLegalRMIIIOPReturnType(bad))
		assert.False(t, in.HasLegalRMIIIOPExceptionTypes(bad))
	})
}
