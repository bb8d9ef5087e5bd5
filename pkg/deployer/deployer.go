// Package deployer 部署前的端到端验证
//
// 职责：打开部署单元、读取描述符、组装类加载器、运行验证器并生成报告，
// 报告可选地写入存储与缓存。任何一个 Bean 未通过时部署被拒绝。
package deployer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ejb-verifier/pkg/config"
	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/report"
	"ejb-verifier/pkg/report/cache"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/typemodel/archive"
	"ejb-verifier/pkg/typemodel/platform"
	"ejb-verifier/pkg/typemodel/symtab"
	"ejb-verifier/pkg/verifier"
	"ejb-verifier/pkg/verifier/event"
)

// 部署描述符位置，按顺序查找
const (
	DescriptorXML  = "META-INF/ejb-jar.xml"
	DescriptorYAML = "META-INF/ejb-jar.yaml"
)

var (
	// ErrNoDescriptor 部署单元中没有部署描述符
	ErrNoDescriptor = errors.New("deployment descriptor not found")
	// ErrRefused 部署单元未通过验证
	ErrRefused = errors.New("deployment refused")
)

// ReportStore 报告持久化
type ReportStore interface {
	Save(ctx context.Context, r *report.Report) error
}

// Option 部署器选项
type Option func(*Deployer)

// WithStore 保存每份新报告
func WithStore(s ReportStore) Option {
	return func(d *Deployer) { d.store = s }
}

// WithCache 按内容摘要缓存报告
func WithCache(c cache.Cache) Option {
	return func(d *Deployer) {
		if c != nil {
			d.cache = c
		}
	}
}

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(d *Deployer) {
		if log != nil {
			d.log = log
		}
	}
}

// Deployer 部署验证器，并发安全
type Deployer struct {
	cfg     config.VerifierConfig
	version string
	symtabs []typemodel.ClassLoader
	store   ReportStore
	cache   cache.Cache
	log     *zap.Logger
}

// New 创建部署器，额外的符号表在此一次性加载
func New(cfg config.VerifierConfig, opts ...Option) (*Deployer, error) {
	d := &Deployer{
		cfg:   cfg,
		cache: cache.Noop{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if cfg.Version != "" {
		full, ok := metadata.NormalizeVersion(cfg.Version)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported EJB version %q", metadata.ErrInvalidDescriptor, cfg.Version)
		}
		d.version = full
	}

	for _, path := range cfg.SymbolTables {
		table, err := symtab.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load symbol table %s: %w", path, err)
		}
		d.symtabs = append(d.symtabs, table)
	}
	return d, nil
}

// VerifyArchive 验证 jar 文件或展开目录
func (d *Deployer) VerifyArchive(ctx context.Context, path string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return d.verify(ctx, a)
}

// VerifyBytes 验证内存中的 jar（HTTP 上传），name 作为报告中的部署单元名
func (d *Deployer) VerifyBytes(ctx context.Context, name string, data []byte) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := archive.FromBytes(name, data)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return d.verify(ctx, a)
}

// Deploy 验证并在未通过时返回 ErrRefused，报告总是返回
func (d *Deployer) Deploy(ctx context.Context, path string) (*report.Report, error) {
	r, err := d.VerifyArchive(ctx, path)
	if err != nil {
		return nil, err
	}
	if !r.Passed() {
		return r, fmt.Errorf("%w: %s: %d violations", ErrRefused, path, r.ViolationCount())
	}
	return r, nil
}

func (d *Deployer) verify(ctx context.Context, a *archive.Archive) (*report.Report, error) {
	log := d.log.With(zap.String("archive", a.Location()))
	key := cache.Key(a.Digest(), d.cfg.Version, d.cfg.StrictPrimaryKey)

	if cached, err := d.cache.Get(ctx, key); err == nil {
		log.Debug("report served from cache", zap.String("report", cached.ID))
		r := *cached
		r.Archive = a.Location()
		return &r, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn("report cache lookup failed", zap.Error(err))
	}

	app, err := readDescriptor(a)
	if err != nil {
		return nil, err
	}

	loader, closeClasspath, err := d.loader(a)
	if err != nil {
		return nil, err
	}
	defer closeClasspath()

	vctx := verifier.NewContext(app, a.Location(), loader, d.version).WithLogger(log)
	builder := report.NewBuilder(a.Location(), a.Digest())
	vctx.AddVerificationListener(builder)
	vctx.AddVerificationListener(event.NewLoggingListener(log))

	v := verifier.New(
		verifier.WithLogger(log),
		verifier.WithStrictPrimaryKeyIdentity(d.cfg.StrictPrimaryKey))
	result, err := v.Verify(vctx)
	if err != nil {
		return nil, err
	}
	r := builder.Finish(result)

	log.Info("deployment unit verified",
		zap.String("report", r.ID),
		zap.Bool("passed", r.Passed()),
		zap.Int("beans", len(r.Beans)),
		zap.Int("violations", r.ViolationCount()))

	if d.store != nil {
		if err := d.store.Save(ctx, r); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}
	if err := d.cache.Put(ctx, key, r); err != nil {
		log.Warn("report cache update failed", zap.Error(err))
	}
	return r, nil
}

// loader 平台类型 → 额外符号表 → 额外类路径 → 部署单元
func (d *Deployer) loader(a *archive.Archive) (typemodel.ClassLoader, func(), error) {
	loaders := []typemodel.ClassLoader{platform.Loader()}
	loaders = append(loaders, d.symtabs...)

	closeFn := func() {}
	if len(d.cfg.Classpath) > 0 {
		cp, archives, err := archive.OpenClasspath(d.cfg.Classpath)
		if err != nil {
			return nil, nil, fmt.Errorf("open classpath: %w", err)
		}
		loaders = append(loaders, cp)
		closeFn = func() {
			for _, opened := range archives {
				opened.Close()
			}
		}
	}
	loaders = append(loaders, a)
	return typemodel.Chain(loaders...), closeFn, nil
}

// readDescriptor 读取并解析部署描述符
func readDescriptor(a *archive.Archive) (*metadata.ApplicationMetaData, error) {
	for _, name := range []string{DescriptorXML, DescriptorYAML} {
		if !a.Has(name) {
			continue
		}
		f, err := a.Open(name)
		if err != nil {
			return nil, err
		}
		app, err := metadata.Parse(name, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return app, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrNoDescriptor, a.Location())
}
