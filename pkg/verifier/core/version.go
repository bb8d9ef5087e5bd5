package core

import (
	"fmt"

	"ejb-verifier/pkg/metadata"
)

// Version 规则引擎的规范版本轴
type Version int

const (
	V1_1 Version = iota + 1
	V2_0
	V2_1
)

// String 返回完整版本字符串
func (v Version) String() string {
	switch v {
	case V1_1:
		return metadata.Version11
	case V2_0:
		return metadata.Version20
	case V2_1:
		return metadata.Version21
	default:
		return "unknown"
	}
}

// Short 返回短版本号，如 2.0
func (v Version) Short() string {
	switch v {
	case V1_1:
		return "1.1"
	case V2_0:
		return "2.0"
	case V2_1:
		return "2.1"
	default:
		return ""
	}
}

// Is2x 是否为 2.0/2.1
func (v Version) Is2x() bool {
	return v == V2_0 || v == V2_1
}

// ParseVersion 解析完整版本字符串（也接受 1.1 / 2.0 / 2.1 短形式）
func ParseVersion(s string) (Version, error) {
	full, ok := metadata.NormalizeVersion(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}
	switch full {
	case metadata.Version11:
		return V1_1, nil
	case metadata.Version20:
		return V2_0, nil
	default:
		return V2_1, nil
	}
}

// BeanKind Bean 的规则分类（决定使用哪一组规则）
type BeanKind int

const (
	KindSession BeanKind = iota + 1
	KindEntityBMP
	KindEntityCMP1
	KindEntityCMP2
	KindMessageDriven
)

// String 返回分类名称
func (k BeanKind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindEntityBMP:
		return "entity-bmp"
	case KindEntityCMP1:
		return "entity-cmp1"
	case KindEntityCMP2:
		return "entity-cmp2"
	case KindMessageDriven:
		return "message-driven"
	default:
		return "unknown"
	}
}
