package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDocument YAML 形式的部署描述符
//
//	version: "2.1"
//	description: Account application
//	beans:
//	  - session:
//	      ejb-name: Teller
//	      ejb-class: com.acme.TellerBean
//	      home: com.acme.TellerHome
//	      remote: com.acme.Teller
//	      session-type: Stateless
//	  - entity:
//	      ejb-name: Account
//	      ...
type yamlDocument struct {
	Version     string     `yaml:"version"`
	Description string     `yaml:"description"`
	Beans       []yamlBean `yaml:"beans"`
}

// yamlBean 每一项恰好包含一个 Bean 种类键
type yamlBean struct {
	Session       *SessionMetaData       `yaml:"session"`
	Entity        *EntityMetaData        `yaml:"entity"`
	MessageDriven *MessageDrivenMetaData `yaml:"message-driven"`
}

func (b *yamlBean) bean() (BeanMetaData, error) {
	var found []BeanMetaData
	if b.Session != nil {
		found = append(found, b.Session)
	}
	if b.Entity != nil {
		found = append(found, b.Entity)
	}
	if b.MessageDriven != nil {
		found = append(found, b.MessageDriven)
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("each bean entry must contain exactly one of session, entity, message-driven (got %d)", len(found))
	}
	return found[0], nil
}

// ParseYAML 解析 YAML 形式的部署描述符，版本缺省为 2.1
func ParseYAML(r io.Reader) (*ApplicationMetaData, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty descriptor", ErrInvalidDescriptor)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	version := doc.Version
	if version == "" {
		version = "2.1"
	}
	normalized, ok := NormalizeVersion(version)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported EJB version %q", ErrInvalidDescriptor, version)
	}

	app := &ApplicationMetaData{
		Version:     normalized,
		Description: doc.Description,
		Beans:       make([]BeanMetaData, 0, len(doc.Beans)),
	}
	for i := range doc.Beans {
		bean, err := doc.Beans[i].bean()
		if err != nil {
			return nil, fmt.Errorf("%w: beans[%d]: %v", ErrInvalidDescriptor, i, err)
		}
		app.Beans = append(app.Beans, bean)
	}

	normalize(app)
	if err := Validate(app); err != nil {
		return nil, err
	}
	return app, nil
}

// ParseYAMLBytes 解析内存中的 YAML 描述符
func ParseYAMLBytes(data []byte) (*ApplicationMetaData, error) {
	return ParseYAML(bytes.NewReader(data))
}

// Parse 按文件名选择解析器：.yaml / .yml 使用 YAML，其它按 ejb-jar.xml 解析
func Parse(name string, r io.Reader) (*ApplicationMetaData, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return ParseYAML(r)
	}
	return ParseEJBJar(r)
}
