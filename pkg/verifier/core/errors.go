package core

import "errors"

var (
	// ErrUnknownVersion 无法识别的 EJB 版本字符串
	ErrUnknownVersion = errors.New("unknown EJB version")

	// ErrNilContext 验证上下文为 nil
	ErrNilContext = errors.New("verification context cannot be nil")

	// ErrNoClassLoader 上下文既没有类加载器也没有可用的部署单元位置
	ErrNoClassLoader = errors.New("no class loader and no deployment unit location")

	// ErrUnknownSection 消息目录中不存在的章节号
	ErrUnknownSection = errors.New("unknown spec section")
)
