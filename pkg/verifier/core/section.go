package core

import "strings"

// Section 规范章节引用：违反了哪一条规则
// 章节号（如 10.6.6.c、jb.7.1.a）是对外的稳定契约，必须逐字保持
type Section struct {
	// ID 点分章节号
	ID string
	// Info 附加说明（如出错的 CMP 字段名、缺失的类名）
	Info string
}

// NewSection 创建章节引用，多段附加说明以空格连接
func NewSection(id string, info ...string) Section {
	return Section{ID: id, Info: strings.Join(info, " ")}
}

// IsZero 是否为空章节
func (s Section) IsZero() bool {
	return s.ID == ""
}

// String 形如 "10.6.6.c" 或 "jb.7.1.a: balance"
func (s Section) String() string {
	if s.Info == "" {
		return s.ID
	}
	return s.ID + ": " + s.Info
}

// Message 规则原文（来自消息目录），附带 Info
func (s Section) Message() string {
	msg, ok := Message(s.ID)
	if !ok {
		msg = "Spec section " + s.ID + " violated."
	}
	if s.Info != "" {
		msg += " (" + s.Info + ")"
	}
	return msg
}
