package classfile

import (
	"fmt"
	"strings"

	"ejb-verifier/pkg/typemodel"
)

// 常量池标签
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// cpEntry 常量池项；只保留解析类结构需要的部分
type cpEntry struct {
	tag   uint8
	utf8  string
	index uint16 // Class / String / MethodType / Module / Package 的引用
}

type constantPool []cpEntry

func readConstantPool(r *reader) (constantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	// 索引从 1 开始，0 号位置保留
	pool := make(constantPool, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			e.utf8 = string(r.bytes(n))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.index = r.u2()
		case tagInteger, tagFloat:
			r.skip(4)
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.skip(4)
		case tagMethodHandle:
			r.skip(3)
		case tagLong, tagDouble:
			// 8 字节常量占用两个槽位
			r.skip(8)
			pool[i] = e
			i++
			continue
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: unknown constant pool tag %d at index %d", typemodel.ErrMalformedClass, tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		pool[i] = e
	}
	if r.err != nil {
		return nil, r.err
	}
	return pool, nil
}

func (p constantPool) entry(index uint16, tag uint8) (cpEntry, error) {
	if index == 0 || int(index) >= len(p) {
		return cpEntry{}, fmt.Errorf("%w: constant pool index %d out of range", typemodel.ErrMalformedClass, index)
	}
	e := p[index]
	if e.tag != tag {
		return cpEntry{}, fmt.Errorf("%w: constant pool index %d has tag %d, want %d",
			typemodel.ErrMalformedClass, index, e.tag, tag)
	}
	return e, nil
}

// utf8 读取 CONSTANT_Utf8
func (p constantPool) utf8(index uint16) (string, error) {
	e, err := p.entry(index, tagUtf8)
	if err != nil {
		return "", err
	}
	return e.utf8, nil
}

// className 读取 CONSTANT_Class 并转换为二进制类名（com/acme/A -> com.acme.A）
// 数组类的内部形式是描述符（[Ljava/lang/String;），转换为源码形式
func (p constantPool) className(index uint16) (string, error) {
	e, err := p.entry(index, tagClass)
	if err != nil {
		return "", err
	}
	internal, err := p.utf8(e.index)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(internal, "[") {
		name, rest, err := parseFieldType(internal)
		if err != nil {
			return "", err
		}
		if rest != "" {
			return "", fmt.Errorf("%w: trailing data in array class %q", typemodel.ErrMalformedClass, internal)
		}
		return name, nil
	}
	return binaryName(internal), nil
}

func binaryName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}
