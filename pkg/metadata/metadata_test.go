package metadata

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ejbJar20 = `<?xml version="1.0" encoding="ISO-8859-1"?>
<!DOCTYPE ejb-jar PUBLIC "-//Sun Microsystems, Inc.//DTD Enterprise JavaBeans 2.0//EN" "http://java.sun.com/dtd/ejb-jar_2_0.dtd">
<ejb-jar>
  <description>Bank</description>
  <enterprise-beans>
    <entity>
      <ejb-name>Account</ejb-name>
      <local-home>com.acme.AccountLocalHome</local-home>
      <local>com.acme.AccountLocal</local>
      <ejb-class>com.acme.AccountBean</ejb-class>
      <persistence-type>Container</persistence-type>
      <prim-key-class>java.lang.String</prim-key-class>
      <reentrant>False</reentrant>
      <abstract-schema-name>Account</abstract-schema-name>
      <cmp-field><field-name>id</field-name></cmp-field>
      <cmp-field><field-name> balance </field-name></cmp-field>
      <primkey-field>id</primkey-field>
      <query>
        <query-method>
          <method-name>findByOwner</method-name>
          <method-params><method-param>java.lang.String</method-param></method-params>
        </query-method>
        <ejb-ql>SELECT OBJECT(a) FROM Account a WHERE a.owner = ?1</ejb-ql>
      </query>
    </entity>
    <session>
      <ejb-name>Teller</ejb-name>
      <home>com.acme.TellerHome</home>
      <remote>com.acme.Teller</remote>
      <ejb-class>com.acme.TellerBean</ejb-class>
      <session-type>Stateless</session-type>
      <transaction-type>Bean</transaction-type>
    </session>
    <message-driven>
      <ejb-name>Audit</ejb-name>
      <ejb-class>com.acme.AuditBean</ejb-class>
      <transaction-type>Container</transaction-type>
      <message-driven-destination>
        <destination-type>javax.jms.Queue</destination-type>
      </message-driven-destination>
    </message-driven>
  </enterprise-beans>
</ejb-jar>`

func TestParseEJBJar(t *testing.T) {
	app, err := ParseEJBJar(strings.NewReader(ejbJar20))
	require.NoError(t, err)

	assert.Equal(t, Version20, app.Version)
	assert.Equal(t, "Bank", app.Description)
	require.Len(t, app.Beans, 3)

	t.Run("保持声明顺序", func(t *testing.T) {
		assert.Equal(t, "Account", app.Beans[0].EJBName())
		assert.Equal(t, "Teller", app.Beans[1].EJBName())
		assert.Equal(t, "Audit", app.Beans[2].EJBName())
		assert.Equal(t, BeanTypeEntity, app.Beans[0].Kind())
		assert.Equal(t, BeanTypeSession, app.Beans[1].Kind())
		assert.Equal(t, BeanTypeMessageDriven, app.Beans[2].Kind())
	})

	t.Run("实体", func(t *testing.T) {
		e := app.Entities()[0]
		assert.True(t, e.IsCMP2x(), "2.0 描述符默认 CMP 2.x")
		assert.False(t, e.Reentrant)
		assert.Equal(t, []string{"id", "balance"}, e.CMPFields)
		assert.True(t, e.HasCMPField("balance"))
		assert.Equal(t, "id", e.PrimKeyField)
		require.Len(t, e.Queries, 1)
		assert.True(t, e.Queries[0].Matches("findByOwner", []string{"java.lang.String"}))
		assert.False(t, e.Queries[0].Matches("findByOwner", []string{"java.lang.Object"}))
		assert.False(t, e.Queries[0].Matches("findByOwner", nil))
		assert.Equal(t, "com.acme.AccountLocalHome", e.LocalHome())
		assert.Empty(t, e.Home())
	})

	t.Run("会话", func(t *testing.T) {
		s := app.Sessions()[0]
		assert.True(t, s.IsStateless())
		assert.False(t, s.IsContainerManagedTx())
	})

	t.Run("消息驱动", func(t *testing.T) {
		b, ok := app.Bean("Audit")
		require.True(t, ok)
		m := b.(*MessageDrivenMetaData)
		assert.Equal(t, DefaultMessagingType, m.MessagingType())
		assert.Equal(t, "javax.jms.Queue", m.DestinationType)
		assert.True(t, m.IsContainerManagedTx())
	})

	_, ok := app.Bean("Nope")
	assert.False(t, ok)
}

func TestParseEJBJarVersions(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{"1.1 DTD", `<!DOCTYPE ejb-jar PUBLIC "-//Sun Microsystems, Inc.//DTD Enterprise JavaBeans 1.1//EN" "x"><ejb-jar>`, Version11},
		{"2.1 schema", `<ejb-jar xmlns="http://java.sun.com/xml/ns/j2ee" version="2.1">`, Version21},
		{"无版本信息", `<ejb-jar>`, Version21},
	}
	body := `<enterprise-beans><entity>
		<ejb-name>E</ejb-name><home>a.H</home><remote>a.R</remote><ejb-class>a.B</ejb-class>
		<persistence-type>Container</persistence-type><prim-key-class>a.PK</prim-key-class>
	</entity></enterprise-beans></ejb-jar>`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := ParseEJBJar(strings.NewReader(tt.head + body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, app.Version)
			e := app.Entities()[0]
			if tt.want == Version11 {
				assert.True(t, e.IsCMP1x(), "1.1 描述符中的 CMP 实体按 1.x 处理")
			} else {
				assert.True(t, e.IsCMP2x())
			}
		})
	}

	t.Run("不支持的版本", func(t *testing.T) {
		_, err := ParseEJBJar(strings.NewReader(`<ejb-jar version="3.0">` + body))
		assert.True(t, errors.Is(err, ErrInvalidDescriptor))
	})
}

func TestParseEJBJarErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"空文档", ""},
		{"根元素错误", "<web-app/>"},
		{"XML 语法错误", "<ejb-jar><enterprise-beans>"},
		{"缺少 ejb-class", `<ejb-jar><enterprise-beans><session><ejb-name>S</ejb-name><session-type>Stateless</session-type></session></enterprise-beans></ejb-jar>`},
		{"非法 session-type", `<ejb-jar><enterprise-beans><session><ejb-name>S</ejb-name><ejb-class>a.B</ejb-class><session-type>Pooled</session-type></session></enterprise-beans></ejb-jar>`},
		{"接口不成对", `<ejb-jar><enterprise-beans><session><ejb-name>S</ejb-name><ejb-class>a.B</ejb-class><home>a.H</home><session-type>Stateful</session-type></session></enterprise-beans></ejb-jar>`},
		{"BMP 声明 primkey-field", `<ejb-jar><enterprise-beans><entity><ejb-name>E</ejb-name><ejb-class>a.B</ejb-class><persistence-type>Bean</persistence-type><prim-key-class>a.PK</prim-key-class><primkey-field>id</primkey-field></entity></enterprise-beans></ejb-jar>`},
		{"ejb-name 重复", `<ejb-jar><enterprise-beans>
			<session><ejb-name>S</ejb-name><ejb-class>a.B</ejb-class><session-type>Stateless</session-type></session>
			<session><ejb-name>S</ejb-name><ejb-class>a.C</ejb-class><session-type>Stateless</session-type></session>
		</enterprise-beans></ejb-jar>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEJBJar(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDescriptor), err.Error())
		})
	}
}

const yamlDescriptor = `
version: "1.1"
description: Legacy bank
beans:
  - entity:
      ejb-name: Account
      ejb-class: com.acme.AccountBean
      home: com.acme.AccountHome
      remote: com.acme.Account
      persistence-type: Container
      prim-key-class: com.acme.AccountPK
      cmp-fields: [id, balance]
  - session:
      ejb-name: Teller
      ejb-class: com.acme.TellerBean
      home: com.acme.TellerHome
      remote: com.acme.Teller
      session-type: Stateful
  - message-driven:
      ejb-name: Audit
      ejb-class: com.acme.AuditBean
      messaging-type: com.acme.AuditListener
`

func TestParseYAML(t *testing.T) {
	app, err := Parse("META-INF/ejb-jar.yaml", strings.NewReader(yamlDescriptor))
	require.NoError(t, err)

	assert.Equal(t, Version11, app.Version)
	require.Len(t, app.Beans, 3)
	assert.True(t, app.Entities()[0].IsCMP1x())
	assert.True(t, app.Sessions()[0].IsStateful())

	b, _ := app.Bean("Audit")
	assert.Equal(t, "com.acme.AuditListener", b.(*MessageDrivenMetaData).MessagingType())

	t.Run("错误", func(t *testing.T) {
		bad := []string{
			"",
			"version: \"9.9\"\n",
			"beans:\n  - {}\n",
			"beans:\n  - session: {ejb-name: S, ejb-class: a.B, session-type: Stateless}\n    entity: {ejb-name: E, ejb-class: a.E, persistence-type: Bean, prim-key-class: a.PK}\n",
			"beans:\n  - session: {ejb-name: S, ejb-class: a.B, session-type: Stateless, bogus: 1}\n",
			"beans:\n  - message-driven: {ejb-name: M, ejb-class: a.M, home: a.H, remote: a.R}\n",
			"beans:\n  - entity: {ejb-name: E, ejb-class: a.E, persistence-type: Container, prim-key-class: a.PK, cmp-fields: [x, x]}\n",
		}
		for _, src := range bad {
			_, err := ParseYAMLBytes([]byte(src))
			assert.True(t, errors.Is(err, ErrInvalidDescriptor), "%q: %v", src, err)
		}
	})
}

func TestNormalizeVersion(t *testing.T) {
	for in, want := range map[string]string{
		"1.1": Version11, "2.0": Version20, " 2.1 ": Version21, Version20: Version20,
	} {
		got, ok := NormalizeVersion(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := NormalizeVersion("3.0")
	assert.False(t, ok)
}

func TestValidateNil(t *testing.T) {
	assert.True(t, errors.Is(Validate(nil), ErrInvalidDescriptor))
	assert.True(t, errors.Is(Validate(&ApplicationMetaData{Version: Version20, Beans: []BeanMetaData{nil}}), ErrInvalidDescriptor))
}
