package verifier

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/typemodel/platform"
	"ejb-verifier/pkg/typemodel/symtab"
	"ejb-verifier/pkg/verifier/core"
	"ejb-verifier/pkg/verifier/event"
)

const classes = `
classes:
  - name: com.acme.Teller
    kind: interface
    interfaces: [javax.ejb.EJBObject]
    methods:
      - {name: deposit, params: [double], returns: double, throws: [java.rmi.RemoteException]}
  - name: com.acme.TellerHome
    kind: interface
    interfaces: [javax.ejb.EJBHome]
    methods:
      - {name: create, returns: com.acme.Teller, throws: [javax.ejb.CreateException, java.rmi.RemoteException]}
  - name: com.acme.TellerBean
    interfaces: [javax.ejb.SessionBean]
    methods:
      - {name: ejbCreate}
      - {name: deposit, params: [double], returns: double}
  - name: com.acme.AuditBean
    modifiers: [public, final]
    interfaces: [javax.ejb.MessageDrivenBean, javax.jms.MessageListener]
    methods:
      - {name: ejbCreate}
      - {name: onMessage, params: [javax.jms.Message]}
`

const descriptor = `
version: "2.0"
beans:
  - session:
      ejb-name: Teller
      ejb-class: com.acme.TellerBean
      home: com.acme.TellerHome
      remote: com.acme.Teller
      session-type: Stateless
  - message-driven:
      ejb-name: Audit
      ejb-class: com.acme.AuditBean
`

func loader(t *testing.T) typemodel.ClassLoader {
	t.Helper()
	app, err := symtab.ParseBytes([]byte(classes))
	require.NoError(t, err)
	return typemodel.Chain(platform.Loader(), app)
}

func application(t *testing.T) *metadata.ApplicationMetaData {
	t.Helper()
	app, err := metadata.ParseYAMLBytes([]byte(descriptor))
	require.NoError(t, err)
	return app
}

func TestNewContext(t *testing.T) {
	t.Run("版本默认取描述符", func(t *testing.T) {
		ctx := NewContext(application(t), "bank.jar", nil, "")
		assert.Equal(t, metadata.Version20, ctx.EJBVersion())
		assert.Equal(t, "bank.jar", ctx.JarURL())
		assert.Nil(t, ctx.ClassLoader())
	})

	t.Run("显式版本优先", func(t *testing.T) {
		ctx := NewContext(application(t), "", loader(t), metadata.Version21)
		assert.Equal(t, metadata.Version21, ctx.EJBVersion())
	})

	t.Run("监听器增删", func(t *testing.T) {
		ctx := NewContext(application(t), "", nil, "")
		c := event.NewCollector()
		ctx.AddVerificationListener(c)
		ctx.FireBeanChecked(event.NewFactory().NewBeanVerified("Teller"))
		ctx.RemoveVerificationListener(c)
		ctx.FireBeanChecked(event.NewFactory().NewBeanVerified("Audit"))
		assert.Equal(t, []string{"Teller"}, c.Verified())
	})
}

func TestVerify(t *testing.T) {
	ctx := NewContext(application(t), "bank.jar", loader(t), "")
	c := event.NewCollector()
	ctx.AddVerificationListener(c)

	result, err := New().Verify(ctx)
	require.NoError(t, err)

	assert.Equal(t, metadata.Version20, result.Version)
	require.Len(t, result.Beans, 2)
	assert.Equal(t, BeanResult{Name: "Teller", Kind: core.KindSession, Verified: true}, result.Beans[0])
	assert.Equal(t, BeanResult{Name: "Audit", Kind: core.KindMessageDriven, Verified: false}, result.Beans[1])
	assert.False(t, result.Passed())
	assert.Equal(t, []string{"Audit"}, result.Failed())

	// AuditBean 只违反了 final 规则，ejbRemove 由 MessageDrivenBean 接口提供
	assert.Equal(t, []string{"15.7.2.d"}, c.Sections())
	assert.Equal(t, []string{"Teller"}, c.Verified())
}

func TestVerifyErrors(t *testing.T) {
	t.Run("上下文为空", func(t *testing.T) {
		_, err := New().Verify(nil)
		assert.ErrorIs(t, err, core.ErrNilContext)
	})

	t.Run("没有元数据", func(t *testing.T) {
		_, err := New().Verify(NewContext(nil, "", loader(t), metadata.Version20))
		assert.ErrorIs(t, err, metadata.ErrInvalidDescriptor)
	})

	t.Run("没有类加载器也没有部署单元", func(t *testing.T) {
		_, err := New().Verify(NewContext(application(t), "", nil, ""))
		assert.ErrorIs(t, err, core.ErrNoClassLoader)
	})

	t.Run("部署单元不存在", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.jar")
		_, err := New().Verify(NewContext(application(t), missing, nil, ""))
		assert.ErrorIs(t, err, core.ErrNoClassLoader)
	})

	t.Run("未知版本", func(t *testing.T) {
		_, err := New().Verify(NewContext(application(t), "", loader(t), "9.9"))
		assert.ErrorIs(t, err, core.ErrUnknownVersion)
	})
}

func TestVerifyBuildsLoaderFromDirectory(t *testing.T) {
	// 空目录：平台类型可以解析，部署单元中的类全部缺失
	dir := t.TempDir()
	ctx := NewContext(application(t), dir, nil, "")
	c := event.NewCollector()
	ctx.AddVerificationListener(c)

	result, err := New().Verify(ctx)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Equal(t, []string{"22.2.b", "22.2.c", "22.2.d", "22.2.b"}, c.Sections())
}
