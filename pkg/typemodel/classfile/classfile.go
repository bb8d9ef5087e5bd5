// Package classfile 读取 JVM class 文件并转换为 typemodel.Class
//
// 只解析验证需要的结构：访问标志、父类与接口、字段、方法签名、
// Exceptions 属性（throws 子句）和 InnerClasses 属性（成员类的外部类与真实修饰符）。
// 不解析字节码，也不做字节码校验。
package classfile

import (
	"fmt"
	"io"

	"ejb-verifier/pkg/typemodel"
)

const magic = 0xCAFEBABE

// 方法上与字段修饰符位重叠的标志（ACC_BRIDGE=0x40、ACC_VARARGS=0x80）及合成标志
const (
	accSuper     = 0x0020
	accBridge    = 0x0040
	accVarargs   = 0x0080
	accSynthetic = 0x1000
)

// classMask 类型上保留的修饰符位
const classMask = typemodel.ModPublic | typemodel.ModPrivate | typemodel.ModProtected |
	typemodel.ModStatic | typemodel.ModFinal | typemodel.ModInterface | typemodel.ModAbstract

// Version class 文件版本
type Version struct {
	Major uint16
	Minor uint16
}

// Parse 解析 class 文件字节
func Parse(data []byte) (*typemodel.Class, error) {
	c, _, err := parse(data)
	return c, err
}

// ParseVersion 解析 class 文件并返回版本号
func ParseVersion(data []byte) (*typemodel.Class, Version, error) {
	return parse(data)
}

// Read 从流中读取并解析 class 文件
func Read(r io.Reader) (*typemodel.Class, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func parse(data []byte) (*typemodel.Class, Version, error) {
	r := newReader(data)

	if m := r.u4(); r.err == nil && m != magic {
		return nil, Version{}, fmt.Errorf("%w: bad magic 0x%08X", typemodel.ErrMalformedClass, m)
	}
	var ver Version
	ver.Minor = r.u2()
	ver.Major = r.u2()
	if r.err != nil {
		return nil, ver, r.err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, ver, err
	}

	access := typemodel.Modifiers(r.u2())
	thisIndex := r.u2()
	superIndex := r.u2()
	if r.err != nil {
		return nil, ver, r.err
	}

	name, err := pool.className(thisIndex)
	if err != nil {
		return nil, ver, err
	}

	c := &typemodel.Class{
		Name:  name,
		Kind:  typemodel.KindClass,
		Flags: access &^ accSuper & classMask,
	}
	if access.IsInterface() {
		c.Kind = typemodel.KindInterface
	}
	// 接口在 class 文件中的父类是 java.lang.Object，类型模型中不保留
	if superIndex != 0 && !access.IsInterface() {
		if c.SuperName, err = pool.className(superIndex); err != nil {
			return nil, ver, err
		}
	}

	n := int(r.u2())
	c.InterfaceNames = make([]string, 0, n)
	for i := 0; i < n; i++ {
		iface, err := pool.className(r.u2())
		if err != nil {
			return nil, ver, firstErr(r.err, err)
		}
		c.InterfaceNames = append(c.InterfaceNames, iface)
	}

	if err := readFields(r, pool, c); err != nil {
		return nil, ver, err
	}
	if err := readMethods(r, pool, c); err != nil {
		return nil, ver, err
	}
	if err := readClassAttributes(r, pool, c); err != nil {
		return nil, ver, err
	}
	if r.err != nil {
		return nil, ver, r.err
	}
	return c, ver, nil
}

func readFields(r *reader, pool constantPool, c *typemodel.Class) error {
	n := int(r.u2())
	for i := 0; i < n; i++ {
		access := typemodel.Modifiers(r.u2())
		nameIndex, descIndex := r.u2(), r.u2()
		if err := skipAttributes(r); err != nil {
			return err
		}
		if access&accSynthetic != 0 {
			continue
		}

		name, err := pool.utf8(nameIndex)
		if err != nil {
			return err
		}
		desc, err := pool.utf8(descIndex)
		if err != nil {
			return err
		}
		typ, rest, err := parseFieldType(desc)
		if err != nil {
			return err
		}
		if rest != "" {
			return fmt.Errorf("%w: trailing data in field descriptor %q", typemodel.ErrMalformedClass, desc)
		}
		c.Fields = append(c.Fields, &typemodel.Field{
			Name:           name,
			Flags:          access &^ accSynthetic,
			Type:           typ,
			DeclaringClass: c.Name,
		})
	}
	return r.err
}

func readMethods(r *reader, pool constantPool, c *typemodel.Class) error {
	n := int(r.u2())
	for i := 0; i < n; i++ {
		access := typemodel.Modifiers(r.u2())
		nameIndex, descIndex := r.u2(), r.u2()
		if r.err != nil {
			return r.err
		}

		name, err := pool.utf8(nameIndex)
		if err != nil {
			return err
		}
		desc, err := pool.utf8(descIndex)
		if err != nil {
			return err
		}
		params, ret, err := parseMethodDescriptor(desc)
		if err != nil {
			return err
		}

		exceptions := []string{}
		attrs := int(r.u2())
		for j := 0; j < attrs; j++ {
			attrName, err := pool.utf8(r.u2())
			if err != nil {
				return firstErr(r.err, err)
			}
			length := int(r.u4())
			if attrName != "Exceptions" {
				r.skip(length)
				continue
			}
			count := int(r.u2())
			for k := 0; k < count; k++ {
				ex, err := pool.className(r.u2())
				if err != nil {
					return firstErr(r.err, err)
				}
				exceptions = append(exceptions, ex)
			}
		}
		if r.err != nil {
			return r.err
		}

		// 编译器生成的桥接方法与合成方法不属于源码声明
		if access&accSynthetic != 0 || access&accBridge != 0 || name == "<clinit>" {
			continue
		}

		m := &typemodel.Method{
			Name:           name,
			Flags:          access &^ (accBridge | accVarargs | accSynthetic),
			ParameterTypes: params,
			ReturnType:     ret,
			ExceptionTypes: exceptions,
			DeclaringClass: c.Name,
		}
		if name == "<init>" {
			c.Constructors = append(c.Constructors, m)
			continue
		}
		c.Methods = append(c.Methods, m)
	}
	return r.err
}

// readClassAttributes 处理 InnerClasses：为成员类补上外部类名与源码级修饰符
func readClassAttributes(r *reader, pool constantPool, c *typemodel.Class) error {
	n := int(r.u2())
	for i := 0; i < n; i++ {
		attrName, err := pool.utf8(r.u2())
		if err != nil {
			return firstErr(r.err, err)
		}
		length := int(r.u4())
		if attrName != "InnerClasses" {
			r.skip(length)
			continue
		}

		count := int(r.u2())
		for k := 0; k < count; k++ {
			innerIndex, outerIndex := r.u2(), r.u2()
			r.u2() // inner_name_index
			innerAccess := typemodel.Modifiers(r.u2())
			if r.err != nil {
				return r.err
			}
			if outerIndex == 0 {
				// 局部类或匿名类
				continue
			}
			inner, err := pool.className(innerIndex)
			if err != nil {
				return err
			}
			if inner != c.Name {
				continue
			}
			outer, err := pool.className(outerIndex)
			if err != nil {
				return err
			}
			c.DeclaringName = outer
			c.Flags = innerAccess & classMask
		}
	}
	return r.err
}

func skipAttributes(r *reader) error {
	n := int(r.u2())
	for i := 0; i < n; i++ {
		r.u2()
		r.skip(int(r.u4()))
	}
	return r.err
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
