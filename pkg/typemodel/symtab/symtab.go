// Package symtab 读取 YAML 形式的预构建符号表，生成 typemodel.Class
//
// 符号表格式：
//
//	classes:
//	  - name: com.acme.AccountBean
//	    kind: class                     # class | interface，默认 class
//	    modifiers: [public]             # 省略时类为 public，接口为 public abstract interface
//	    super: java.lang.Object         # 类默认 java.lang.Object
//	    interfaces: [javax.ejb.EntityBean]
//	    declaring: com.acme.Outer       # 成员类的外部类
//	    fields:
//	      - {name: balance, type: double, modifiers: [public]}
//	    methods:
//	      - name: ejbCreate
//	        params: [java.lang.String]
//	        returns: java.lang.String   # 默认 void
//	        throws: [javax.ejb.CreateException]
//	    constructors:                   # 省略时生成 Java 默认构造器
//	      - {params: []}
package symtab

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"ejb-verifier/pkg/typemodel"
	"ejb-verifier/pkg/validator"
)

// Document 符号表文档
type Document struct {
	Classes []ClassSpec `yaml:"classes" validate:"dive"`
}

// ClassSpec 类描述
type ClassSpec struct {
	Name         string       `yaml:"name" validate:"required"`
	Kind         string       `yaml:"kind" validate:"omitempty,oneof=class interface"`
	Modifiers    []string     `yaml:"modifiers"`
	Super        string       `yaml:"super"`
	Interfaces   []string     `yaml:"interfaces"`
	Declaring    string       `yaml:"declaring"`
	Fields       []FieldSpec  `yaml:"fields" validate:"dive"`
	Methods      []MethodSpec `yaml:"methods" validate:"dive"`
	Constructors []MethodSpec `yaml:"constructors" validate:"dive"`
}

// MethodSpec 方法/构造器描述
type MethodSpec struct {
	Name      string   `yaml:"name"`
	Modifiers []string `yaml:"modifiers"`
	Params    []string `yaml:"params"`
	Returns   string   `yaml:"returns"`
	Throws    []string `yaml:"throws"`
}

// FieldSpec 字段描述
type FieldSpec struct {
	Name      string   `yaml:"name" validate:"required"`
	Type      string   `yaml:"type" validate:"required"`
	Modifiers []string `yaml:"modifiers"`
}

// Parse 解析符号表并返回内存加载器
func Parse(r io.Reader) (*typemodel.MapLoader, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", typemodel.ErrMalformedClass, err)
	}
	return Build(&doc)
}

// ParseBytes 解析内存中的符号表
func ParseBytes(data []byte) (*typemodel.MapLoader, error) {
	return Parse(bytes.NewReader(data))
}

// Load 从文件加载符号表
func Load(path string) (*typemodel.MapLoader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	loader, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("symbol table %s: %w", path, err)
	}
	return loader, nil
}

// Build 将文档转换为类描述
func Build(doc *Document) (*typemodel.MapLoader, error) {
	if err := validator.Check(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", typemodel.ErrMalformedClass, err)
	}

	loader, err := typemodel.NewMapLoader()
	if err != nil {
		return nil, err
	}
	for i := range doc.Classes {
		c, err := buildClass(&doc.Classes[i])
		if err != nil {
			return nil, err
		}
		if err := loader.Define(c); err != nil {
			return nil, err
		}
	}
	return loader, nil
}

func buildClass(spec *ClassSpec) (*typemodel.Class, error) {
	isInterface := spec.Kind == "interface"

	c := &typemodel.Class{
		Name:           spec.Name,
		Kind:           typemodel.KindClass,
		InterfaceNames: spec.Interfaces,
		DeclaringName:  spec.Declaring,
		SuperName:      spec.Super,
	}

	flags, err := parseModifiers(spec.Modifiers, typemodel.ModPublic)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", spec.Name, err)
	}
	if isInterface {
		c.Kind = typemodel.KindInterface
		flags |= typemodel.ModInterface | typemodel.ModAbstract
		c.SuperName = ""
	} else if c.SuperName == "" && spec.Name != typemodel.ObjectClass {
		c.SuperName = typemodel.ObjectClass
	}
	c.Flags = flags

	for _, fs := range spec.Fields {
		ff, err := parseModifiers(fs.Modifiers, typemodel.ModNone)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", spec.Name, fs.Name, err)
		}
		if isInterface {
			ff |= typemodel.ModPublic | typemodel.ModStatic | typemodel.ModFinal
		}
		c.Fields = append(c.Fields, &typemodel.Field{
			Name:           fs.Name,
			Type:           fs.Type,
			Flags:          ff,
			DeclaringClass: spec.Name,
		})
	}

	for _, ms := range spec.Methods {
		if ms.Name == "" {
			return nil, fmt.Errorf("%w: method without name in %s", typemodel.ErrMalformedClass, spec.Name)
		}
		def := typemodel.ModPublic
		if isInterface {
			def = typemodel.ModPublic | typemodel.ModAbstract
		}
		mf, err := parseModifiers(ms.Modifiers, def)
		if err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", spec.Name, ms.Name, err)
		}
		ret := ms.Returns
		if ret == "" {
			ret = typemodel.Void
		}
		c.Methods = append(c.Methods, &typemodel.Method{
			Name:           ms.Name,
			Flags:          mf,
			ParameterTypes: nonNil(ms.Params),
			ReturnType:     ret,
			ExceptionTypes: nonNil(ms.Throws),
			DeclaringClass: spec.Name,
		})
	}

	if !isInterface {
		if spec.Constructors == nil {
			// Java 默认构造器：无参数，访问级别与类一致
			c.Constructors = []*typemodel.Method{{
				Name:           "<init>",
				Flags:          flags & (typemodel.ModPublic | typemodel.ModProtected | typemodel.ModPrivate),
				ParameterTypes: []string{},
				ReturnType:     typemodel.Void,
				ExceptionTypes: []string{},
				DeclaringClass: spec.Name,
			}}
		}
		for _, cs := range spec.Constructors {
			cf, err := parseModifiers(cs.Modifiers, typemodel.ModPublic)
			if err != nil {
				return nil, fmt.Errorf("constructor of %s: %w", spec.Name, err)
			}
			c.Constructors = append(c.Constructors, &typemodel.Method{
				Name:           "<init>",
				Flags:          cf,
				ParameterTypes: nonNil(cs.Params),
				ReturnType:     typemodel.Void,
				ExceptionTypes: nonNil(cs.Throws),
				DeclaringClass: spec.Name,
			})
		}
	}

	return c, nil
}

// parseModifiers nil 表示使用默认值，空列表表示包级私有
func parseModifiers(names []string, def typemodel.Modifiers) (typemodel.Modifiers, error) {
	if names == nil {
		return def, nil
	}
	var flags typemodel.Modifiers
	for _, name := range names {
		flag, ok := typemodel.ParseModifier(name)
		if !ok {
			return 0, fmt.Errorf("%w: unknown modifier %q", typemodel.ErrMalformedClass, name)
		}
		flags.Set(flag)
	}
	return flags, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
