// Package archive 在部署单元（jar 文件或展开目录）之上实现 ClassLoader
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/typemodel/classfile"
)

// ErrEntryNotFound 归档中不存在指定条目
var ErrEntryNotFound = errors.New("archive entry not found")

// Archive 部署单元
// 职责：按类名加载 class 文件，读取其它条目（部署描述符等），计算内容摘要
// 说明：解析过的类会被缓存，LoadClass 并发安全
type Archive struct {
	location string
	fsys     fs.FS
	closer   io.Closer
	digest   string

	mu      sync.Mutex
	classes map[string]*typemodel.Class
}

// Open 打开 jar 文件或展开目录
func Open(location string) (*Archive, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return FromFS(location, os.DirFS(location), nil)
	}

	zr, err := zip.OpenReader(location)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", location, err)
	}
	a, err := FromFS(location, zr, zr)
	if err != nil {
		zr.Close()
		return nil, err
	}
	return a, nil
}

// FromBytes 从内存中的 jar 内容创建归档（HTTP 上传等场景）
func FromBytes(location string, data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", location, err)
	}
	return FromFS(location, zr, nil)
}

// FromFS 在任意文件系统之上创建归档
func FromFS(location string, fsys fs.FS, closer io.Closer) (*Archive, error) {
	a := &Archive{
		location: location,
		fsys:     fsys,
		closer:   closer,
		classes:  make(map[string]*typemodel.Class),
	}
	digest, err := a.computeDigest()
	if err != nil {
		return nil, err
	}
	a.digest = digest
	return a, nil
}

// Location 归档位置（文件路径或 URL）
func (a *Archive) Location() string {
	return a.location
}

// Digest 归档内容摘要（BLAKE2b-256，十六进制），与条目顺序无关
func (a *Archive) Digest() string {
	return a.digest
}

// Close 释放底层文件
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Open 打开归档中的条目，如 META-INF/ejb-jar.xml
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	f, err := a.fsys.Open(path.Clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		return nil, err
	}
	return f, nil
}

// ReadFile 读取整个条目
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Has 条目是否存在
func (a *Archive) Has(name string) bool {
	_, err := fs.Stat(a.fsys, path.Clean(name))
	return err == nil
}

// LoadClass 实现 typemodel.ClassLoader 接口
func (a *Archive) LoadClass(name string) (*typemodel.Class, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.classes[name]; ok {
		return c, nil
	}

	data, err := a.ReadFile(EntryName(name))
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, typemodel.NotFound(name)
		}
		return nil, err
	}
	c, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s in %s: %w", name, a.location, err)
	}
	if c.Name != name {
		return nil, fmt.Errorf("%w: entry %s defines %s", typemodel.ErrMalformedClass, EntryName(name), c.Name)
	}
	a.classes[name] = c
	return c, nil
}

// ClassNames 归档中所有 class 条目对应的类名（有序）
func (a *Archive) ClassNames() ([]string, error) {
	var names []string
	err := fs.WalkDir(a.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".class") {
			return nil
		}
		names = append(names, strings.ReplaceAll(strings.TrimSuffix(p, ".class"), "/", "."))
		return nil
	})
	sort.Strings(names)
	return names, err
}

// EntryName 类名对应的条目路径：com.acme.Outer$Inner -> com/acme/Outer$Inner.class
func EntryName(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ".class"
}

// computeDigest 依次对条目名与内容做摘要；条目按名称排序，保证展开目录与 jar 的结果稳定
func (a *Archive) computeDigest() (string, error) {
	var entries []string
	err := fs.WalkDir(a.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			entries = append(entries, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan archive %s: %w", a.location, err)
	}
	sort.Strings(entries)

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		h.Write([]byte(entry))
		h.Write([]byte{0})
		f, err := a.fsys.Open(entry)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ============================================================================
// Classpath 额外类路径
// ============================================================================

// OpenClasspath 打开多个类路径条目（jar 或目录），返回按顺序委托的加载器
// 调用方负责关闭返回的归档
func OpenClasspath(entries []string) (typemodel.ClassLoader, []*Archive, error) {
	archives := make([]*Archive, 0, len(entries))
	loaders := make([]typemodel.ClassLoader, 0, len(entries))
	for _, entry := range entries {
		a, err := Open(filepath.Clean(entry))
		if err != nil {
			for _, opened := range archives {
				opened.Close()
			}
			return nil, nil, err
		}
		archives = append(archives, a)
		loaders = append(loaders, a)
	}
	return typemodel.Chain(loaders...), archives, nil
}
