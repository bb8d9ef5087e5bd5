package verifier

import (
	"go.uber.org/zap"

	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/verifier/core"
	"ejb-verifier/pkg/verifier/event"
)

// DefaultContext 基于同步事件总线的验证上下文
type DefaultContext struct {
	app     *metadata.ApplicationMetaData
	jarURL  string
	loader  typemodel.ClassLoader
	version string
	bus     *event.Bus
}

var _ core.VerificationContext = (*DefaultContext)(nil)

// NewContext 创建验证上下文
// loader 可为 nil（由验证器根据 jarURL 构建）；version 为空时使用描述符中的版本
func NewContext(app *metadata.ApplicationMetaData, jarURL string, loader typemodel.ClassLoader, version string) *DefaultContext {
	if version == "" && app != nil {
		version = app.Version
	}
	return &DefaultContext{
		app:     app,
		jarURL:  jarURL,
		loader:  loader,
		version: version,
		bus:     event.NewBus(nil),
	}
}

// WithLogger 设置事件总线的日志（监听器 panic 时记录）
func (c *DefaultContext) WithLogger(log *zap.Logger) *DefaultContext {
	c.bus = event.NewBus(log)
	return c
}

func (c *DefaultContext) ApplicationMetaData() *metadata.ApplicationMetaData { return c.app }
func (c *DefaultContext) JarURL() string                                     { return c.jarURL }
func (c *DefaultContext) ClassLoader() typemodel.ClassLoader                 { return c.loader }
func (c *DefaultContext) EJBVersion() string                                 { return c.version }

func (c *DefaultContext) AddVerificationListener(l core.VerificationListener) {
	c.bus.Subscribe(l)
}

func (c *DefaultContext) RemoveVerificationListener(l core.VerificationListener) {
	c.bus.Unsubscribe(l)
}

func (c *DefaultContext) FireSpecViolation(e core.VerificationEvent) {
	c.bus.Publish(e)
}

func (c *DefaultContext) FireBeanChecked(e core.VerificationEvent) {
	c.bus.Publish(e)
}

// loaderContext 为没有类加载器的上下文补上一个
type loaderContext struct {
	core.VerificationContext
	loader typemodel.ClassLoader
}

func (c *loaderContext) ClassLoader() typemodel.ClassLoader { return c.loader }
