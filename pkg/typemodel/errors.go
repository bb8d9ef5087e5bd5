package typemodel

import "errors"

var (
	// ErrClassNotFound 类在当前加载器链中无法解析
	ErrClassNotFound = errors.New("class not found")

	// ErrMalformedClass 类描述（class 文件或符号表）格式错误
	ErrMalformedClass = errors.New("malformed class description")

	// ErrDuplicateClass 同一加载器中重复定义同名类
	ErrDuplicateClass = errors.New("duplicate class definition")
)
