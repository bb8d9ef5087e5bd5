// Package metadata 部署描述符中声明的 Bean 元数据
//
// 元数据在验证前解析一次，验证过程中只读。
package metadata

import (
	"errors"
	"strings"

	"ejb-verifier/pkg/validator"
)

// ErrInvalidDescriptor 部署描述符无法解析或不满足结构约束
var ErrInvalidDescriptor = errors.New("invalid deployment descriptor")

// EJB 版本字符串（VerificationContext 中传递的原样常量）
const (
	Version11 = "Enterprise JavaBeans v1.1, Final Release"
	Version20 = "Enterprise JavaBeans v2.0, Final Release"
	Version21 = "Enterprise JavaBeans v2.1, Final Release"
)

// NormalizeVersion 将 "1.1"/"2.0"/"2.1" 或完整版本字符串规范化为完整版本字符串
func NormalizeVersion(v string) (string, bool) {
	switch strings.TrimSpace(v) {
	case "1.1", Version11:
		return Version11, true
	case "2.0", Version20:
		return Version20, true
	case "2.1", Version21:
		return Version21, true
	default:
		return "", false
	}
}

// BeanType Bean 种类
type BeanType string

const (
	BeanTypeSession       BeanType = "session"
	BeanTypeEntity        BeanType = "entity"
	BeanTypeMessageDriven BeanType = "message-driven"
)

// 事务管理方式
const (
	TransactionBean      = "Bean"
	TransactionContainer = "Container"
)

// BeanMetaData 所有 Bean 共有的声明信息
type BeanMetaData interface {
	EJBName() string
	EJBClass() string
	Home() string
	Remote() string
	LocalHome() string
	Local() string
	TransactionType() string
	IsContainerManagedTx() bool
	Kind() BeanType
}

// Common Bean 公共字段
type Common struct {
	Name               string `yaml:"ejb-name" validate:"required"`
	Class              string `yaml:"ejb-class" validate:"required"`
	HomeInterface      string `yaml:"home"`
	RemoteInterface    string `yaml:"remote"`
	LocalHomeInterface string `yaml:"local-home"`
	LocalInterface     string `yaml:"local"`
	Transaction        string `yaml:"transaction-type" validate:"omitempty,oneof=Bean Container"`
}

func (c *Common) EJBName() string   { return c.Name }
func (c *Common) EJBClass() string  { return c.Class }
func (c *Common) Home() string      { return c.HomeInterface }
func (c *Common) Remote() string    { return c.RemoteInterface }
func (c *Common) LocalHome() string { return c.LocalHomeInterface }
func (c *Common) Local() string     { return c.LocalInterface }

// TransactionType 事务管理方式，未声明时为 Container
func (c *Common) TransactionType() string {
	if c.Transaction == "" {
		return TransactionContainer
	}
	return c.Transaction
}

// IsContainerManagedTx 是否为容器管理事务
func (c *Common) IsContainerManagedTx() bool {
	return c.TransactionType() == TransactionContainer
}

// checkViews 接口必须成对声明
func (c *Common) checkViews(report validator.FuncReportError) {
	if (c.HomeInterface == "") != (c.RemoteInterface == "") {
		report("home", "paired", "remote")
	}
	if (c.LocalHomeInterface == "") != (c.LocalInterface == "") {
		report("local-home", "paired", "local")
	}
}

// ============================================================================
// Session
// ============================================================================

// 会话类型
const (
	SessionStateless = "Stateless"
	SessionStateful  = "Stateful"
)

// SessionMetaData 会话 Bean
type SessionMetaData struct {
	Common      `yaml:",inline"`
	SessionType string `yaml:"session-type" validate:"required,oneof=Stateless Stateful"`
}

// Kind 实现 BeanMetaData 接口
func (s *SessionMetaData) Kind() BeanType { return BeanTypeSession }

func (s *SessionMetaData) IsStateless() bool { return s.SessionType == SessionStateless }
func (s *SessionMetaData) IsStateful() bool  { return s.SessionType == SessionStateful }

// CustomValidation 跨字段验证
func (s *SessionMetaData) CustomValidation(report validator.FuncReportError) {
	s.checkViews(report)
}

// ============================================================================
// Entity
// ============================================================================

// 持久化方式与 CMP 版本
const (
	PersistenceBean      = "Bean"
	PersistenceContainer = "Container"
	CMPVersion1x         = "1.x"
	CMPVersion2x         = "2.x"
)

// QueryMetaData 声明式查询（<query>）
type QueryMetaData struct {
	MethodName        string   `yaml:"method-name" validate:"required"`
	MethodParams      []string `yaml:"method-params"`
	ResultTypeMapping string   `yaml:"result-type-mapping" validate:"omitempty,oneof=Local Remote"`
	EJBQL             string   `yaml:"ejb-ql"`
}

// Matches 按方法名与参数类型列表精确匹配
func (q *QueryMetaData) Matches(name string, params []string) bool {
	if q.MethodName != name || len(q.MethodParams) != len(params) {
		return false
	}
	for i := range params {
		if q.MethodParams[i] != params[i] {
			return false
		}
	}
	return true
}

// EntityMetaData 实体 Bean
type EntityMetaData struct {
	Common             `yaml:",inline"`
	Persistence        string          `yaml:"persistence-type" validate:"required,oneof=Bean Container"`
	CMPVersionValue    string          `yaml:"cmp-version" validate:"omitempty,oneof=1.x 2.x"`
	PrimKeyClass       string          `yaml:"prim-key-class" validate:"required"`
	PrimKeyField       string          `yaml:"primkey-field"`
	Reentrant          bool            `yaml:"reentrant"`
	AbstractSchemaName string          `yaml:"abstract-schema-name"`
	CMPFields          []string        `yaml:"cmp-fields"`
	Queries            []QueryMetaData `yaml:"queries" validate:"dive"`
}

// Kind 实现 BeanMetaData 接口
func (e *EntityMetaData) Kind() BeanType { return BeanTypeEntity }

func (e *EntityMetaData) IsBMP() bool { return e.Persistence == PersistenceBean }
func (e *EntityMetaData) IsCMP() bool { return e.Persistence == PersistenceContainer }

// CMPVersion CMP 版本，未声明时为 2.x（1.1 描述符在解析时已填充为 1.x）
func (e *EntityMetaData) CMPVersion() string {
	if e.CMPVersionValue == "" {
		return CMPVersion2x
	}
	return e.CMPVersionValue
}

func (e *EntityMetaData) IsCMP1x() bool { return e.IsCMP() && e.CMPVersion() == CMPVersion1x }
func (e *EntityMetaData) IsCMP2x() bool { return e.IsCMP() && e.CMPVersion() == CMPVersion2x }

// HasCMPField 是否声明了指定的 cmp-field
func (e *EntityMetaData) HasCMPField(name string) bool {
	for _, f := range e.CMPFields {
		if f == name {
			return true
		}
	}
	return false
}

// CustomValidation 跨字段验证
func (e *EntityMetaData) CustomValidation(report validator.FuncReportError) {
	e.checkViews(report)
	if e.IsBMP() {
		if e.PrimKeyField != "" {
			report("primkey-field", "cmp_only", "")
		}
		if len(e.CMPFields) > 0 {
			report("cmp-fields", "cmp_only", "")
		}
		if len(e.Queries) > 0 {
			report("queries", "cmp_only", "")
		}
		if e.CMPVersionValue != "" {
			report("cmp-version", "cmp_only", "")
		}
	}
	seen := make(map[string]struct{}, len(e.CMPFields))
	for _, f := range e.CMPFields {
		if _, dup := seen[f]; dup {
			report("cmp-fields", "unique", f)
		}
		seen[f] = struct{}{}
	}
}

// ============================================================================
// Message-driven
// ============================================================================

// DefaultMessagingType 未声明 messaging-type 时的消息监听接口
const DefaultMessagingType = "javax.jms.MessageListener"

// MessageDrivenMetaData 消息驱动 Bean
type MessageDrivenMetaData struct {
	Common             `yaml:",inline"`
	MessagingTypeValue string `yaml:"messaging-type"`
	DestinationType    string `yaml:"destination-type" validate:"omitempty,oneof=javax.jms.Queue javax.jms.Topic"`
	AcknowledgeMode    string `yaml:"acknowledge-mode" validate:"omitempty,oneof=Auto-acknowledge Dups-ok-acknowledge"`
}

// Kind 实现 BeanMetaData 接口
func (m *MessageDrivenMetaData) Kind() BeanType { return BeanTypeMessageDriven }

// MessagingType 消息监听接口名
func (m *MessageDrivenMetaData) MessagingType() string {
	if m.MessagingTypeValue == "" {
		return DefaultMessagingType
	}
	return m.MessagingTypeValue
}

// CustomValidation 消息驱动 Bean 没有客户端视图
func (m *MessageDrivenMetaData) CustomValidation(report validator.FuncReportError) {
	if m.HomeInterface != "" || m.RemoteInterface != "" || m.LocalHomeInterface != "" || m.LocalInterface != "" {
		report("message-driven", "no_client_view", "")
	}
}

// ============================================================================
// Application
// ============================================================================

// ApplicationMetaData 一个部署单元（ejb-jar）的元数据
type ApplicationMetaData struct {
	// Version 完整的 EJB 版本字符串
	Version     string
	Description string
	// Beans 按声明顺序排列
	Beans []BeanMetaData
}

// Bean 按 ejb-name 查找
func (a *ApplicationMetaData) Bean(name string) (BeanMetaData, bool) {
	for _, b := range a.Beans {
		if b.EJBName() == name {
			return b, true
		}
	}
	return nil, false
}

// Sessions 所有会话 Bean
func (a *ApplicationMetaData) Sessions() []*SessionMetaData {
	var out []*SessionMetaData
	for _, b := range a.Beans {
		if s, ok := b.(*SessionMetaData); ok {
			out = append(out, s)
		}
	}
	return out
}

// Entities 所有实体 Bean
func (a *ApplicationMetaData) Entities() []*EntityMetaData {
	var out []*EntityMetaData
	for _, b := range a.Beans {
		if e, ok := b.(*EntityMetaData); ok {
			out = append(out, e)
		}
	}
	return out
}
