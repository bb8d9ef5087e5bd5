// Package verifier EJB 部署单元验证的入口
//
// 验证器按声明顺序遍历部署单元中的 Bean，根据 EJB 版本与 Bean 种类选择规则，
// 通过上下文把违规与通过事件同步分发给监听器。规则违规不是错误：
// 只有无法建立验证环境（没有元数据、无法打开部署单元、未知版本）时才返回 error。
package verifier

import (
	"fmt"

	"go.uber.org/zap"

	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/typemodel/archive"
	"ejb-verifier/pkg/typemodel/platform"
	"ejb-verifier/pkg/verifier/core"
	"ejb-verifier/pkg/verifier/strategy"
)

// Option 验证器选项
type Option func(*Verifier)

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(v *Verifier) {
		if log != nil {
			v.log = log
		}
	}
}

// WithStrictPrimaryKeyIdentity 见 strategy.WithStrictPrimaryKeyIdentity
func WithStrictPrimaryKeyIdentity(strict bool) Option {
	return func(v *Verifier) {
		v.strictPK = strict
	}
}

// Verifier 部署单元验证器，无状态，可重复使用
type Verifier struct {
	log      *zap.Logger
	strictPK bool
}

// New 创建验证器
func New(opts ...Option) *Verifier {
	v := &Verifier{log: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// BeanResult 单个 Bean 的结果
type BeanResult struct {
	Name     string        `json:"name"`
	Kind     core.BeanKind `json:"kind"`
	Verified bool          `json:"verified"`
}

// Result 一次验证的汇总
type Result struct {
	Version string       `json:"version"`
	Beans   []BeanResult `json:"beans"`
}

// Passed 所有 Bean 都通过
func (r Result) Passed() bool {
	for _, b := range r.Beans {
		if !b.Verified {
			return false
		}
	}
	return true
}

// Failed 未通过的 Bean 名
func (r Result) Failed() []string {
	var out []string
	for _, b := range r.Beans {
		if !b.Verified {
			out = append(out, b.Name)
		}
	}
	return out
}

// Verify 验证上下文中的全部 Bean
func (v *Verifier) Verify(ctx core.VerificationContext) (Result, error) {
	if ctx == nil {
		return Result{}, core.ErrNilContext
	}
	app := ctx.ApplicationMetaData()
	if app == nil {
		return Result{}, fmt.Errorf("%w: no application metadata", metadata.ErrInvalidDescriptor)
	}

	if ctx.ClassLoader() == nil {
		loader, closeFn, err := v.openLoader(ctx.JarURL())
		if err != nil {
			return Result{}, err
		}
		defer closeFn()
		ctx = &loaderContext{VerificationContext: ctx, loader: loader}
	}

	s, err := strategy.New(ctx,
		strategy.WithLogger(v.log),
		strategy.WithStrictPrimaryKeyIdentity(v.strictPK))
	if err != nil {
		return Result{}, err
	}

	log := v.log.With(zap.String("jar", ctx.JarURL()))
	log.Debug("verifying deployment unit", zap.Int("beans", len(app.Beans)), zap.String("version", ctx.EJBVersion()))

	result := Result{Version: ctx.EJBVersion(), Beans: make([]BeanResult, 0, len(app.Beans))}
	for _, bean := range app.Beans {
		ok := strategy.Check(s, bean)
		result.Beans = append(result.Beans, BeanResult{
			Name:     bean.EJBName(),
			Kind:     strategy.Classify(bean),
			Verified: ok,
		})
		if !ok {
			log.Debug("bean failed verification", zap.String("bean", bean.EJBName()))
		}
	}
	return result, nil
}

// openLoader 以部署单元为基础构建类加载器：平台类型优先，其次部署单元
func (v *Verifier) openLoader(jarURL string) (typemodel.ClassLoader, func(), error) {
	if jarURL == "" {
		return nil, nil, core.ErrNoClassLoader
	}
	a, err := archive.Open(jarURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoClassLoader, err)
	}
	return typemodel.Chain(platform.Loader(), a), func() { a.Close() }, nil
}
