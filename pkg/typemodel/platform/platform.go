// Package platform 提供内置的 Java 平台符号表（java.lang、java.rmi、javax.ejb、javax.jms 等）
package platform

import (
	_ "embed"
	"sync"

	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/typemodel/symtab"
)

//go:embed platform.yaml
var platformYAML []byte

var (
	// loader 平台加载器，全局单例，只读
	loader *typemodel.MapLoader
	// loadErr 解析内置符号表的错误（正常情况下永远为 nil）
	loadErr error
	once    sync.Once
)

// Loader 返回共享的平台类加载器（单例模式）
// 内置符号表损坏属于构建期错误，因此这里直接 panic
func Loader() *typemodel.MapLoader {
	l, err := Load()
	if err != nil {
		panic(err)
	}
	return l
}

// Load 返回共享的平台类加载器及解析错误
func Load() (*typemodel.MapLoader, error) {
	once.Do(func() {
		loader, loadErr = symtab.ParseBytes(platformYAML)
	})
	return loader, loadErr
}

// Source 返回内置符号表原文（供 CLI 导出与调试）
func Source() []byte {
	out := make([]byte, len(platformYAML))
	copy(out, platformYAML)
	return out
}
