package typemodel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ClassLoader 类加载器接口
// 职责：按二进制类名提供类描述
// 约定：找不到时返回包装了 ErrClassNotFound 的错误，其它错误表示描述本身有问题
type ClassLoader interface {
	LoadClass(name string) (*Class, error)
}

// NotFound 构造类未找到错误
func NotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrClassNotFound, name)
}

// ============================================================================
// MapLoader 内存加载器
// ============================================================================

// MapLoader 基于内存映射的类加载器
// 说明：符号表加载器与测试都使用它，定义完成后只读，读操作并发安全
type MapLoader struct {
	classes map[string]*Class
	mu      sync.RWMutex
}

// NewMapLoader 创建内存加载器
func NewMapLoader(classes ...*Class) (*MapLoader, error) {
	l := &MapLoader{classes: make(map[string]*Class, len(classes))}
	for _, c := range classes {
		if err := l.Define(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Define 定义一个类，同名类重复定义返回 ErrDuplicateClass
func (l *MapLoader) Define(c *Class) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("%w: class without name", ErrMalformedClass)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.classes[c.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, c.Name)
	}
	l.classes[c.Name] = c
	return nil
}

// LoadClass 实现 ClassLoader 接口
func (l *MapLoader) LoadClass(name string) (*Class, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if c, ok := l.classes[name]; ok {
		return c, nil
	}
	return nil, NotFound(name)
}

// Names 返回已定义的类名（有序）
func (l *MapLoader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.classes))
	for name := range l.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len 已定义的类数量
func (l *MapLoader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.classes)
}

// ============================================================================
// ChainLoader 委托链
// ============================================================================

// chainLoader 父优先委托链，与 JVM 类加载器的双亲委派一致
type chainLoader struct {
	loaders []ClassLoader
}

// Chain 创建父优先的加载器链，排在前面的加载器优先
// nil 加载器会被忽略
func Chain(loaders ...ClassLoader) ClassLoader {
	filtered := make([]ClassLoader, 0, len(loaders))
	for _, l := range loaders {
		if l != nil {
			filtered = append(filtered, l)
		}
	}
	return &chainLoader{loaders: filtered}
}

// LoadClass 实现 ClassLoader 接口
// 只有 ErrClassNotFound 会继续委托，其它错误立即返回
func (c *chainLoader) LoadClass(name string) (*Class, error) {
	for _, l := range c.loaders {
		cls, err := l.LoadClass(name)
		if err == nil {
			return cls, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	}
	return nil, NotFound(name)
}
