package classfile

import (
	"fmt"
	"strings"

	"ejb-verifier/pkg/typemodel"
)

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// parseFieldType 解析一个字段描述符，返回类型名与剩余部分
//
//	I                    -> int
//	Ljava/lang/String;   -> java.lang.String
//	[[J                  -> long[][]
func parseFieldType(desc string) (string, string, error) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	desc = desc[dims:]
	if desc == "" {
		return "", "", fmt.Errorf("%w: empty field descriptor", typemodel.ErrMalformedClass)
	}

	var name string
	switch c := desc[0]; c {
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 2 {
			return "", "", fmt.Errorf("%w: bad object descriptor %q", typemodel.ErrMalformedClass, desc)
		}
		name = binaryName(desc[1:end])
		desc = desc[end+1:]
	default:
		base, ok := baseTypes[c]
		if !ok {
			return "", "", fmt.Errorf("%w: bad descriptor character %q", typemodel.ErrMalformedClass, c)
		}
		name = base
		desc = desc[1:]
	}
	return name + strings.Repeat("[]", dims), desc, nil
}

// parseMethodDescriptor 解析方法描述符 (params)ret
func parseMethodDescriptor(desc string) ([]string, string, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", fmt.Errorf("%w: bad method descriptor %q", typemodel.ErrMalformedClass, desc)
	}
	rest := desc[1:]
	params := make([]string, 0, 4)
	for {
		if rest == "" {
			return nil, "", fmt.Errorf("%w: unterminated method descriptor %q", typemodel.ErrMalformedClass, desc)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		var (
			param string
			err   error
		)
		param, rest, err = parseFieldType(rest)
		if err != nil {
			return nil, "", err
		}
		params = append(params, param)
	}

	if rest == "V" {
		return params, typemodel.Void, nil
	}
	ret, tail, err := parseFieldType(rest)
	if err != nil {
		return nil, "", err
	}
	if tail != "" {
		return nil, "", fmt.Errorf("%w: trailing data in method descriptor %q", typemodel.ErrMalformedClass, desc)
	}
	return params, ret, nil
}
