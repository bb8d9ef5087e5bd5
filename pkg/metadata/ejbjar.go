package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ============================================================================
// ejb-jar.xml 解析
// ============================================================================

// doctypeVersion 从 DTD 公共标识中提取版本，如
// -//Sun Microsystems, Inc.//DTD Enterprise JavaBeans 2.0//EN
var doctypeVersion = regexp.MustCompile(`DTD Enterprise JavaBeans (\d\.\d)`)

type xmlEJBJar struct {
	XMLName     xml.Name          `xml:"ejb-jar"`
	Version     string            `xml:"version,attr"`
	Description string            `xml:"description"`
	Beans       xmlEnterpriseBean `xml:"enterprise-beans"`
}

// xmlEnterpriseBean 按文档顺序保存 session / entity / message-driven
type xmlEnterpriseBean struct {
	beans []BeanMetaData
}

type xmlCommon struct {
	Name        string `xml:"ejb-name"`
	Class       string `xml:"ejb-class"`
	Home        string `xml:"home"`
	Remote      string `xml:"remote"`
	LocalHome   string `xml:"local-home"`
	Local       string `xml:"local"`
	Transaction string `xml:"transaction-type"`
}

func (c xmlCommon) toCommon() Common {
	return Common{
		Name:               trim(c.Name),
		Class:              trim(c.Class),
		HomeInterface:      trim(c.Home),
		RemoteInterface:    trim(c.Remote),
		LocalHomeInterface: trim(c.LocalHome),
		LocalInterface:     trim(c.Local),
		Transaction:        trim(c.Transaction),
	}
}

type xmlSession struct {
	xmlCommon
	SessionType string `xml:"session-type"`
}

type xmlCMPField struct {
	FieldName string `xml:"field-name"`
}

type xmlQuery struct {
	MethodName        string   `xml:"query-method>method-name"`
	MethodParams      []string `xml:"query-method>method-params>method-param"`
	ResultTypeMapping string   `xml:"result-type-mapping"`
	EJBQL             string   `xml:"ejb-ql"`
}

type xmlEntity struct {
	xmlCommon
	Persistence        string        `xml:"persistence-type"`
	PrimKeyClass       string        `xml:"prim-key-class"`
	Reentrant          string        `xml:"reentrant"`
	CMPVersion         string        `xml:"cmp-version"`
	AbstractSchemaName string        `xml:"abstract-schema-name"`
	CMPFields          []xmlCMPField `xml:"cmp-field"`
	PrimKeyField       string        `xml:"primkey-field"`
	Queries            []xmlQuery    `xml:"query"`
}

type xmlMessageDriven struct {
	xmlCommon
	MessagingType string `xml:"messaging-type"`
	// 2.0 DTD 形式
	Destination     string `xml:"message-driven-destination>destination-type"`
	DestinationType string `xml:"message-destination-type"`
	AcknowledgeMode string `xml:"acknowledge-mode"`
}

// UnmarshalXML 保持三种 Bean 的声明顺序
func (eb *xmlEnterpriseBean) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			bean, err := decodeBean(d, t)
			if err != nil {
				return err
			}
			if bean != nil {
				eb.beans = append(eb.beans, bean)
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeBean(d *xml.Decoder, start xml.StartElement) (BeanMetaData, error) {
	switch start.Name.Local {
	case "session":
		var s xmlSession
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, err
		}
		return &SessionMetaData{Common: s.toCommon(), SessionType: trim(s.SessionType)}, nil

	case "entity":
		var e xmlEntity
		if err := d.DecodeElement(&e, &start); err != nil {
			return nil, err
		}
		entity := &EntityMetaData{
			Common:             e.toCommon(),
			Persistence:        trim(e.Persistence),
			CMPVersionValue:    trim(e.CMPVersion),
			PrimKeyClass:       trim(e.PrimKeyClass),
			PrimKeyField:       trim(e.PrimKeyField),
			Reentrant:          strings.EqualFold(trim(e.Reentrant), "true"),
			AbstractSchemaName: trim(e.AbstractSchemaName),
		}
		for _, f := range e.CMPFields {
			entity.CMPFields = append(entity.CMPFields, trim(f.FieldName))
		}
		for _, q := range e.Queries {
			query := QueryMetaData{
				MethodName:        trim(q.MethodName),
				MethodParams:      make([]string, 0, len(q.MethodParams)),
				ResultTypeMapping: trim(q.ResultTypeMapping),
				EJBQL:             trim(q.EJBQL),
			}
			for _, p := range q.MethodParams {
				query.MethodParams = append(query.MethodParams, trim(p))
			}
			entity.Queries = append(entity.Queries, query)
		}
		return entity, nil

	case "message-driven":
		var m xmlMessageDriven
		if err := d.DecodeElement(&m, &start); err != nil {
			return nil, err
		}
		dest := trim(m.DestinationType)
		if dest == "" {
			dest = trim(m.Destination)
		}
		return &MessageDrivenMetaData{
			Common:             m.toCommon(),
			MessagingTypeValue: trim(m.MessagingType),
			DestinationType:    dest,
			AcknowledgeMode:    trim(m.AcknowledgeMode),
		}, nil

	default:
		// 未知元素整体跳过
		return nil, d.Skip()
	}
}

// ParseEJBJar 解析标准 ejb-jar.xml
//
// 版本判定顺序：根元素 version 属性（2.1 schema 形式）> DOCTYPE 中的 DTD 版本 > 默认 2.1
func ParseEJBJar(r io.Reader) (*ApplicationMetaData, error) {
	d := xml.NewDecoder(r)
	// 描述符中常见 ISO-8859-1 声明，按原样读取字节
	d.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var doctype string
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: missing <ejb-jar> element", ErrInvalidDescriptor)
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		switch t := tok.(type) {
		case xml.Directive:
			doctype = string(t)
		case xml.StartElement:
			if t.Name.Local != "ejb-jar" {
				return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrInvalidDescriptor, t.Name.Local)
			}
			var doc xmlEJBJar
			if err := d.DecodeElement(&doc, &t); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
			}
			return buildApplication(&doc, doctype)
		}
	}
}

func buildApplication(doc *xmlEJBJar, doctype string) (*ApplicationMetaData, error) {
	version := trim(doc.Version)
	if version == "" {
		if m := doctypeVersion.FindStringSubmatch(doctype); m != nil {
			version = m[1]
		} else {
			version = "2.1"
		}
	}
	normalized, ok := NormalizeVersion(version)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported EJB version %q", ErrInvalidDescriptor, version)
	}

	app := &ApplicationMetaData{
		Version:     normalized,
		Description: trim(doc.Description),
		Beans:       doc.Beans.beans,
	}
	normalize(app)
	if err := Validate(app); err != nil {
		return nil, err
	}
	return app, nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
