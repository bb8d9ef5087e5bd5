// Package strategy EJB 规则引擎与按版本分派
//
// 每次检查一个 Bean：所有规则组（Bean 类、home、remote、local home、local、主键）都会运行，
// 结果相与；只有全部通过时才触发一次 BeanVerified 事件。
package strategy

import (
	"go.uber.org/zap"

	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/core"
	"ejb-verifier/pkg/verifier/event"
	"ejb-verifier/pkg/verifier/introspect"
)

// Strategy 一个 EJB 版本的规则集
type Strategy interface {
	CheckSession(session *metadata.SessionMetaData) bool
	CheckEntity(entity *metadata.EntityMetaData) bool
	CheckMessageBean(mdb *metadata.MessageDrivenMetaData) bool
}

// Option 规则引擎选项
// 设计模式：函数选项模式
type Option func(*options)

type options struct {
	strictPrimaryKeyIdentity bool
	log                      *zap.Logger
}

// WithStrictPrimaryKeyIdentity 主键类缺少 equals/hashCode 时在 1.1 规则下报告违规（默认只记 warn）
func WithStrictPrimaryKeyIdentity(strict bool) Option {
	return func(o *options) {
		o.strictPrimaryKeyIdentity = strict
	}
}

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// New 按上下文中的 EJB 版本选择规则引擎
func New(ctx core.VerificationContext, opts ...Option) (Strategy, error) {
	if ctx == nil {
		return nil, core.ErrNilContext
	}
	if ctx.ClassLoader() == nil {
		return nil, core.ErrNoClassLoader
	}
	version, err := core.ParseVersion(ctx.EJBVersion())
	if err != nil {
		return nil, err
	}

	o := &options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	ts := typemodel.NewTypeSystem(ctx.ClassLoader())
	base := &checker{
		ctx:      ctx,
		ts:       ts,
		in:       introspect.New(ts, o.log),
		events:   event.NewFactory(),
		log:      o.log.With(zap.String("ejb_version", version.Short())),
		strictPK: o.strictPrimaryKeyIdentity,
	}

	if version == core.V1_1 {
		return &ejb11{checker: base}, nil
	}
	return &ejb2x{checker: base, cmp1: &ejb11{checker: base}}, nil
}

// Classify Bean 的规则分类，未知类型返回 0
func Classify(bean metadata.BeanMetaData) core.BeanKind {
	switch b := bean.(type) {
	case *metadata.SessionMetaData:
		return core.KindSession
	case *metadata.EntityMetaData:
		switch {
		case b.IsBMP():
			return core.KindEntityBMP
		case b.IsCMP1x():
			return core.KindEntityCMP1
		default:
			return core.KindEntityCMP2
		}
	case *metadata.MessageDrivenMetaData:
		return core.KindMessageDriven
	default:
		return 0
	}
}

// Check 按 Bean 类型分派到对应的检查
func Check(s Strategy, bean metadata.BeanMetaData) bool {
	switch b := bean.(type) {
	case *metadata.SessionMetaData:
		return s.CheckSession(b)
	case *metadata.EntityMetaData:
		return s.CheckEntity(b)
	case *metadata.MessageDrivenMetaData:
		return s.CheckMessageBean(b)
	default:
		return false
	}
}
